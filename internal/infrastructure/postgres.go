package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Message ledger: one row per logical message. Delivery status mutates
	// the status column in place, it never appends a second row for the
	// same provider message ID.
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			kind VARCHAR(20) NOT NULL,
			type VARCHAR(20),
			from_id VARCHAR(64),
			to_phone VARCHAR(64),
			phone VARCHAR(64),
			body TEXT,
			provider_message_id VARCHAR(128) UNIQUE,
			reply_to_message_id VARCHAR(128),
			status VARCHAR(32),
			interactive_selection JSONB,
			raw JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ
		);
	`)
	if err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_messages_phone ON messages (phone);
	`)
	if err != nil {
		return fmt.Errorf("create messages phone index: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("create messages created_at index: %w", err)
	}

	// Conversation state: one row per phone
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contacts (
			phone VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255),
			last_message_id VARCHAR(128),
			last_body TEXT,
			last_type VARCHAR(20),
			last_kind VARCHAR(20),
			last_direction VARCHAR(20),
			last_sender_id VARCHAR(64),
			last_recipient_phone VARCHAR(64),
			last_timestamp TIMESTAMPTZ,
			total_messages BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}

	// Operator accounts for the protected API
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// Canned reply texts and other runtime settings
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bot_config (
			key VARCHAR(50) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create bot_config table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
