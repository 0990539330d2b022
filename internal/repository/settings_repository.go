package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingsRepository stores raw JSON values by key.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// All returns every stored key with its raw value.
func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return values, nil
}

func (r *SettingsRepository) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

// Rename moves the value of from to to when to is absent, then drops from.
// It reports whether a value was copied.
func (r *SettingsRepository) Rename(ctx context.Context, from, to string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var legacy string
	err = tx.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, from).Scan(&legacy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %s: %w", from, err)
	}

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM settings WHERE key = ?`, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("check setting %s: %w", to, err)
	}

	copied := false
	if exists == 0 {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
			to,
			legacy,
			formatTime(time.Now()),
		); err != nil {
			return false, fmt.Errorf("copy setting %s: %w", from, err)
		}
		copied = true
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, from); err != nil {
		return false, fmt.Errorf("delete setting %s: %w", from, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit rename: %w", err)
	}
	return copied, nil
}
