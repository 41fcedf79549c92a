package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BotConfig struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConfigRepository struct {
	db *pgxpool.Pool
}

func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetConfig returns a config value by key. A missing key is "" and no error,
// so callers fall back to their compiled-in defaults.
func (r *ConfigRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, "SELECT value FROM bot_config WHERE key=$1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &PersistenceError{Op: "get config", Err: err}
	}
	return value, nil
}

// SetConfig sets a config value.
func (r *ConfigRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bot_config (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
	`, key, value)
	if err != nil {
		return &PersistenceError{Op: "set config", Err: err}
	}
	return nil
}

// GetAllConfigs returns all configs.
func (r *ConfigRepository) GetAllConfigs(ctx context.Context) ([]BotConfig, error) {
	rows, err := r.db.Query(ctx, "SELECT key, value, updated_at FROM bot_config")
	if err != nil {
		return nil, &PersistenceError{Op: "list configs", Err: err}
	}
	defer rows.Close()

	configs := []BotConfig{}
	for rows.Next() {
		var c BotConfig
		if err := rows.Scan(&c.Key, &c.Value, &c.UpdatedAt); err != nil {
			return nil, &PersistenceError{Op: "scan config", Err: err}
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
