package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"swapledger/internal/models"

	"github.com/IBM/sarama/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Write(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

type failingSink struct{ panics bool }

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Write(context.Context, Event) error {
	if s.panics {
		panic("boom")
	}
	return errors.New("sink down")
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func TestRecorder_StampsEvents(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	sink := &captureSink{}
	rec := NewRecorder(nil, clock, sink)

	rec.Record(context.Background(), Event{Action: ActionDeposit, Details: map[string]interface{}{"user_id": 1}})

	require.Len(t, sink.events, 1)
	got := sink.events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, ActorSystem, got.Actor)
	assert.Equal(t, clock.Now().UTC(), got.Timestamp)
}

func TestRecorder_SwallowsSinkFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := &captureSink{}
	rec := NewRecorder(zap.New(core), clockwork.NewFakeClock(),
		&failingSink{}, &failingSink{panics: true}, sink)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Event{Action: ActionSpend, Actor: "op@example.com"})
	})

	assert.Len(t, sink.events, 1, "later sinks still receive the event")
	assert.Equal(t, 2, logs.FilterMessage("audit sink failed").Len())
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Event{Action: ActionExpire})
	})
	assert.NoError(t, rec.Close())
}

func TestDBSink_Write(t *testing.T) {
	store := new(MockAuditStore)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.On("Create", mock.Anything, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.EventID == "evt-1" && l.Action == ActionRefund && l.Details["user_id"] == 7 && l.RecordedAt.Equal(at)
	})).Return(nil)

	err := NewDBSink(store).Write(context.Background(), Event{
		ID:        "evt-1",
		Action:    ActionRefund,
		Actor:     "system",
		Details:   map[string]interface{}{"user_id": 7},
		Timestamp: at,
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestKafkaSink_Write(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Action != ActionSettlementComplete {
			return errors.New("unexpected action " + e.Action)
		}
		return nil
	})

	sink := NewKafkaSinkWithProducer(producer, "", nil)
	err := sink.Write(context.Background(), Event{
		ID:      "evt-2",
		Action:  ActionSettlementComplete,
		Details: map[string]interface{}{"settlement_id": 3},
	})

	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}
