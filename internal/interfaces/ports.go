package interfaces

import (
	"context"

	"warelay/internal/entities"
)

// Dispatcher sends outbound messages through the provider.
// Every method returns the provider-assigned message ID on success.
type Dispatcher interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendTextReply(ctx context.Context, to, body, inReplyTo string) (string, error)
	SendInteractive(ctx context.Context, to string, payload entities.InteractivePayload) (string, error)
}

// MessageLedger is the append/update log of every processed event.
type MessageLedger interface {
	Append(ctx context.Context, rec *entities.MessageRecord) error
	// ReconcileStatus mutates the status of an existing row; if no row owns
	// providerMessageID it appends the fallback record instead. Returns true
	// when an existing row was updated.
	ReconcileStatus(ctx context.Context, providerMessageID, status string, fallback *entities.MessageRecord) (bool, error)
	Query(ctx context.Context, f entities.MessageFilter) ([]entities.MessageRecord, int, error)
}

// ContactStore holds the per-phone rolling conversation state.
type ContactStore interface {
	Upsert(ctx context.Context, phone string, d entities.ContactDelta) error
	HasPriorReply(ctx context.Context, phone string) (bool, error)
	SetName(ctx context.Context, phone, name string) error
	Get(ctx context.Context, phone string) (*entities.ContactRecord, error)
	List(ctx context.Context, limit, offset int) ([]entities.ContactRecord, error)
}

// ConfigStore resolves runtime settings such as canned reply texts.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

// UserStore holds operator accounts for the protected API.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}
