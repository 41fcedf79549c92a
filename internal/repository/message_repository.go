package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"warelay/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxQueryLimit bounds one page of ledger results.
const MaxQueryLimit = 200

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append inserts a new ledger row and stamps CreatedAt.
func (r *MessageRepository) Append(ctx context.Context, rec *entities.MessageRecord) error {
	rec.CreatedAt = time.Now().UTC()
	if rec.Phone == "" {
		rec.Phone = entities.NormalizedPhone(rec.Kind, rec.From, rec.To)
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO messages
			(kind, type, from_id, to_phone, phone, body, provider_message_id,
			 reply_to_message_id, status, interactive_selection, raw, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		rec.Kind, rec.Type, rec.From, rec.To, rec.Phone, rec.Body,
		rec.ProviderMessageID, rec.ReplyToMessageID, rec.Status,
		rec.Selection, rec.Raw, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return &PersistenceError{Op: "append message", Err: err}
	}
	return nil
}

// ReconcileStatus overwrites the status of the row owning providerMessageID.
// When no row exists yet (missed inbound, process restart) it appends the
// fallback record instead so the callback is still captured for audit.
// Returns true if an existing row was updated.
func (r *MessageRepository) ReconcileStatus(ctx context.Context, providerMessageID, status string, fallback *entities.MessageRecord) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = $2, updated_at = NOW()
		WHERE provider_message_id = $1
	`, providerMessageID, status)
	if err != nil {
		return false, &PersistenceError{Op: "reconcile status", Err: err}
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	if fallback == nil {
		return false, nil
	}
	return false, r.Append(ctx, fallback)
}

// normalizePage resolves a filter's pagination: limit defaults to 50 and is
// clamped to MaxQueryLimit, page is 1-indexed with anything below treated as
// the first page.
func normalizePage(f entities.MessageFilter) (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// Query returns one reverse-chronological page of ledger rows plus the total
// match count for pagination UIs.
func (r *MessageRepository) Query(ctx context.Context, f entities.MessageFilter) ([]entities.MessageRecord, int, error) {
	limit, offset := normalizePage(f)

	var conditions []string
	var args []any

	if f.Phone != "" {
		args = append(args, f.Phone)
		conditions = append(conditions, "phone = $"+strconv.Itoa(len(args)))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		conditions = append(conditions, "kind = $"+strconv.Itoa(len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conditions = append(conditions, "type = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit, offset)
	query := `
		SELECT id, kind, type, from_id, to_phone, phone, body,
		       provider_message_id, reply_to_message_id, status,
		       interactive_selection, raw, created_at, updated_at,
		       COUNT(*) OVER() AS total
		FROM messages ` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "query messages", Err: err}
	}
	defer rows.Close()

	var records []entities.MessageRecord
	total := 0
	for rows.Next() {
		var m entities.MessageRecord
		if err := rows.Scan(
			&m.ID, &m.Kind, &m.Type, &m.From, &m.To, &m.Phone, &m.Body,
			&m.ProviderMessageID, &m.ReplyToMessageID, &m.Status,
			&m.Selection, &m.Raw, &m.CreatedAt, &m.UpdatedAt, &total,
		); err != nil {
			return nil, 0, &PersistenceError{Op: "scan message", Err: err}
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &PersistenceError{Op: "query messages", Err: err}
	}
	return records, total, nil
}
