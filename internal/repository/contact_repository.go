package repository

import (
	"context"
	"errors"

	"warelay/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactRepository struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

// Upsert creates or updates the conversation state for phone in one
// statement. Descriptive fields are last-write-wins; total_messages is
// incremented inside the conflict clause so overlapping webhook deliveries
// for the same phone never lose counts to a read-modify-write race.
func (r *ContactRepository) Upsert(ctx context.Context, phone string, d entities.ContactDelta) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contacts
			(phone, last_message_id, last_body, last_type, last_kind,
			 last_direction, last_sender_id, last_recipient_phone,
			 last_timestamp, total_messages, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW())
		ON CONFLICT (phone) DO UPDATE SET
			last_message_id = EXCLUDED.last_message_id,
			last_body = EXCLUDED.last_body,
			last_type = EXCLUDED.last_type,
			last_kind = EXCLUDED.last_kind,
			last_direction = EXCLUDED.last_direction,
			last_sender_id = EXCLUDED.last_sender_id,
			last_recipient_phone = EXCLUDED.last_recipient_phone,
			last_timestamp = EXCLUDED.last_timestamp,
			total_messages = contacts.total_messages + 1,
			updated_at = NOW()
	`, phone, d.MessageID, d.Body, d.Type, d.Kind, d.Direction,
		d.SenderID, d.RecipientPhone, d.Timestamp)
	if err != nil {
		return &PersistenceError{Op: "upsert contact", Err: err}
	}
	return nil
}

// HasPriorReply reports whether the stored conversation state for phone ends
// in a reply from the business. It reads fresh on every call so the decision
// survives process restarts.
func (r *ContactRepository) HasPriorReply(ctx context.Context, phone string) (bool, error) {
	var lastKind string
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(last_kind, '') FROM contacts WHERE phone = $1",
		phone).Scan(&lastKind)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "read contact state", Err: err}
	}
	return lastKind == string(entities.KindReply), nil
}

// SetName records an operator-assigned display name. The message counter is
// untouched: naming a contact is not a conversation event.
func (r *ContactRepository) SetName(ctx context.Context, phone, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contacts (phone, name, total_messages, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (phone) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
	`, phone, name)
	if err != nil {
		return &PersistenceError{Op: "set contact name", Err: err}
	}
	return nil
}

// Get returns the conversation state for one phone.
func (r *ContactRepository) Get(ctx context.Context, phone string) (*entities.ContactRecord, error) {
	var c entities.ContactRecord
	err := r.db.QueryRow(ctx, `
		SELECT phone, name, COALESCE(last_message_id, ''), COALESCE(last_body, ''),
		       COALESCE(last_type, ''), COALESCE(last_kind, ''),
		       COALESCE(last_direction, ''), COALESCE(last_sender_id, ''),
		       COALESCE(last_recipient_phone, ''),
		       COALESCE(last_timestamp, 'epoch'::timestamptz),
		       total_messages, updated_at
		FROM contacts WHERE phone = $1
	`, phone).Scan(
		&c.Phone, &c.Name, &c.LastMessageID, &c.LastBody, &c.LastType,
		&c.LastKind, &c.LastDirection, &c.LastSenderID, &c.LastRecipientPhone,
		&c.LastTimestamp, &c.TotalMessages, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get contact", Err: err}
	}
	return &c, nil
}

// List returns contacts ordered by most recent activity.
func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]entities.ContactRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT phone, name, COALESCE(last_message_id, ''), COALESCE(last_body, ''),
		       COALESCE(last_type, ''), COALESCE(last_kind, ''),
		       COALESCE(last_direction, ''), COALESCE(last_sender_id, ''),
		       COALESCE(last_recipient_phone, ''),
		       COALESCE(last_timestamp, 'epoch'::timestamptz),
		       total_messages, updated_at
		FROM contacts
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, &PersistenceError{Op: "list contacts", Err: err}
	}
	defer rows.Close()

	var contacts []entities.ContactRecord
	for rows.Next() {
		var c entities.ContactRecord
		if err := rows.Scan(
			&c.Phone, &c.Name, &c.LastMessageID, &c.LastBody, &c.LastType,
			&c.LastKind, &c.LastDirection, &c.LastSenderID, &c.LastRecipientPhone,
			&c.LastTimestamp, &c.TotalMessages, &c.UpdatedAt,
		); err != nil {
			return nil, &PersistenceError{Op: "scan contact", Err: err}
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
