package entities

import "time"

// MessageKind is the ledger classification of a logged event.
type MessageKind string

const (
	KindIncoming  MessageKind = "incoming"
	KindStatus    MessageKind = "status"
	KindReply     MessageKind = "reply"
	KindBroadcast MessageKind = "broadcast"
)

// MessageType is the content type of a message.
type MessageType string

const (
	TypeText        MessageType = "text"
	TypeInteractive MessageType = "interactive"
	TypeOther       MessageType = "other"
)

// Direction of an interaction relative to the business.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionReply    Direction = "reply"
	DirectionStatus   Direction = "status"
)

// InteractiveSelection is the option a contact picked from a list or button message.
type InteractiveSelection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MessageRecord is one ledger row. Status is the only mutable field:
// delivery callbacks overwrite it in place instead of appending new rows.
type MessageRecord struct {
	ID                int64                 `json:"id"`
	Kind              MessageKind           `json:"kind"`
	Type              MessageType           `json:"type,omitempty"`
	From              string                `json:"from"`
	To                string                `json:"to"`
	Phone             string                `json:"phone"` // counterparty regardless of direction
	Body              *string               `json:"body,omitempty"`
	ProviderMessageID string                `json:"provider_message_id"`
	ReplyToMessageID  *string               `json:"reply_to_message_id,omitempty"`
	Status            *string               `json:"status,omitempty"`
	Selection         *InteractiveSelection `json:"interactive_selection,omitempty"`
	Raw               []byte                `json:"raw,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         *time.Time            `json:"updated_at,omitempty"`
}

// NormalizedPhone returns the counterparty phone for a record: the sender for
// incoming events, the recipient for everything the business originates.
func NormalizedPhone(kind MessageKind, from, to string) string {
	if kind == KindIncoming {
		return from
	}
	return to
}

// MessageFilter narrows a ledger query. Empty fields match everything.
// Page is 1-indexed; Limit is clamped by the repository.
type MessageFilter struct {
	Phone string
	Kind  string
	Type  string
	Page  int
	Limit int
}
