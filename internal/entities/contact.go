package entities

import "time"

// ContactRecord is the rolling per-phone conversation summary.
// Name is only ever set by an operator, never inferred from messages.
// TotalMessages grows by exactly one per processed event for this phone.
type ContactRecord struct {
	Phone              string    `json:"phone"`
	Name               *string   `json:"name,omitempty"`
	LastMessageID      string    `json:"last_message_id"`
	LastBody           string    `json:"last_body"`
	LastType           string    `json:"last_type"`
	LastKind           string    `json:"last_kind"`
	LastDirection      string    `json:"last_direction"`
	LastSenderID       string    `json:"last_sender_id"`
	LastRecipientPhone string    `json:"last_recipient_phone"`
	LastTimestamp      time.Time `json:"last_timestamp"`
	TotalMessages      int64     `json:"total_messages"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ContactDelta is the snapshot merged over a ContactRecord on upsert.
// Descriptive fields are last-write-wins; the message counter is incremented
// server-side so concurrent deliveries for one phone never lose counts.
type ContactDelta struct {
	MessageID      string
	Body           string
	Type           MessageType
	Kind           MessageKind
	Direction      Direction
	SenderID       string
	RecipientPhone string
	Timestamp      time.Time
}
