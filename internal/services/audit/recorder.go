package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Sink is one destination for audit events.
type Sink interface {
	Name() string
	Write(ctx context.Context, event Event) error
}

// Recorder delivers events to every sink, logging and swallowing their
// failures.
type Recorder struct {
	sinks  []Sink
	logger *zap.Logger
	clock  clockwork.Clock
}

func NewRecorder(logger *zap.Logger, clock clockwork.Clock, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Recorder{sinks: sinks, logger: logger, clock: clock}
}

// Record stamps the event and writes it to all sinks. It is safe to call on a
// nil Recorder.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.clock.Now().UTC()
	}
	if event.Actor == "" {
		event.Actor = ActorSystem
	}
	for _, sink := range r.sinks {
		if err := r.write(ctx, sink, event); err != nil {
			r.logger.Warn("audit sink failed",
				zap.String("sink", sink.Name()),
				zap.String("action", event.Action),
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}
}

func (r *Recorder) write(ctx context.Context, sink Sink, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panicked: %v", p)
		}
	}()
	return sink.Write(ctx, event)
}

// Close releases sinks that hold resources, such as the Kafka producer.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	for _, sink := range r.sinks {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
