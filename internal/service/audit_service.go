package service

import (
	"context"
	"log/slog"
	"time"

	"dance-storefront/internal/event"
	"dance-storefront/internal/model"
)

const auditWriteTimeout = 5 * time.Second

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	ListByUser(ctx context.Context, userID int, limit int) ([]model.AuditEntry, error)
}

// AuditService records storefront events. Without a store entries are only
// logged. Persistence failures are logged and never reach the user.
type AuditService struct {
	store auditStore
}

func NewAuditService(store auditStore) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Enabled() bool {
	return s != nil && s.store != nil
}

// Run consumes bus events until ctx is cancelled.
func (s *AuditService) Run(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.Record(ctx, e)
		}
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) {
	entry := entryFromEvent(e)

	if !s.Enabled() {
		slog.Info("audit",
			"action", entry.Action,
			"status", entry.Status,
			"user_id", entry.UserID,
			"username", entry.Username,
			"resource", entry.Resource,
			"request_id", entry.RequestID,
		)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.store.Log(writeCtx, entry); err != nil {
		slog.Warn("audit entry not persisted", "action", entry.Action, "error", err)
	}
}

// Recent lists the latest entries for userID; empty when auditing is off.
func (s *AuditService) Recent(ctx context.Context, userID int, limit int) []model.AuditEntry {
	if !s.Enabled() || userID <= 0 {
		return []model.AuditEntry{}
	}

	entries, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		slog.WarnContext(ctx, "audit history unavailable", "user_id", userID, "error", err)
		return []model.AuditEntry{}
	}
	return entries
}

func entryFromEvent(e event.Event) model.AuditEntry {
	occurredAt, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	return model.AuditEntry{
		ID:         e.ID,
		Action:     string(e.Type),
		OccurredAt: occurredAt,
		UserID:     e.Payload.UserID,
		Username:   e.Payload.Username,
		Resource:   e.Payload.Resource,
		Status:     e.Payload.Status,
		Detail:     e.Payload.Detail,
		RequestID:  e.Payload.RequestID,
	}
}
