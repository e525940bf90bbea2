package audit

import (
	"context"

	"swapledger/internal/models"
)

// AuditStore is the slice of the audit repository the sink needs.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type DBSink struct {
	store AuditStore
}

func NewDBSink(store AuditStore) *DBSink {
	return &DBSink{store: store}
}

func (s *DBSink) Name() string { return "postgres" }

func (s *DBSink) Write(ctx context.Context, event Event) error {
	return s.store.Create(ctx, &models.AuditLog{
		EventID:    event.ID,
		Action:     event.Action,
		Actor:      event.Actor,
		Details:    models.NewJSON(event.Details),
		RecordedAt: event.Timestamp,
	})
}
