package model

import "time"

type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     int       `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
