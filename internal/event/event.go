package event

type Type string

const (
	TypeSessionLogin      Type = "session.login"
	TypeSessionRegister   Type = "session.register"
	TypeSessionLogout     Type = "session.logout"
	TypeSessionRejected   Type = "session.rejected"
	TypePreferenceCreated Type = "checkout.preference_created"
	TypePreferenceFailed  Type = "checkout.preference_failed"
)

// Payload carries the audit-relevant facts of an event.
type Payload struct {
	UserID    int    `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Resource  string `json:"resource,omitempty"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Event struct {
	ID        string  `json:"id"`
	Type      Type    `json:"type"`
	Payload   Payload `json:"payload"`
	Timestamp string  `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // channel and unsubscribe
}
