package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dance-storefront/internal/model"
)

const maxAuditRows = 200

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	var userID *int
	if entry.UserID > 0 {
		userID = &entry.UserID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (id, action, occurred_at, user_id, username, resource, status, detail, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Action, entry.OccurredAt, userID, entry.Username,
		entry.Resource, entry.Status, entry.Detail, entry.RequestID)
	if err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

// ListByUser returns the most recent entries recorded for userID, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID int, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxAuditRows {
		limit = maxAuditRows
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, action, occurred_at, COALESCE(user_id, 0), username, resource, status, detail, request_id
		 FROM audit_entries
		 WHERE user_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.OccurredAt, &e.UserID, &e.Username,
			&e.Resource, &e.Status, &e.Detail, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
