package audit

import (
	"context"

	"go.uber.org/zap"
)

type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, event Event) error {
	s.logger.Info(event.Action,
		zap.String("event_id", event.ID),
		zap.String("actor", event.Actor),
		zap.Any("details", event.Details),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}
