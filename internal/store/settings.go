package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetSetting returns the value stored under key. A missing key returns nil.
func GetSetting(ctx context.Context, db *sql.DB, key string) ([]byte, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting setting %s: %w", key, err)
	}
	return []byte(value), nil
}

// PutSetting stores value under key, replacing any previous value.
func PutSetting(ctx context.Context, db *sql.DB, key string, value []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// ReceiptSecretKey is the backend key holding the receipt signing secret.
const ReceiptSecretKey = "receipt_secret"

// GetReceiptSecret retrieves the receipt signing secret from the backend.
// If no secret exists, it generates one, stores it, and returns it.
func GetReceiptSecret(ctx context.Context, b Backend) (string, error) {
	existing, err := b.Get(ctx, ReceiptSecretKey)
	if err != nil {
		return "", fmt.Errorf("querying receipt secret: %w", err)
	}
	if len(existing) > 0 {
		return string(existing), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating receipt secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := b.Put(ctx, ReceiptSecretKey, []byte(secret)); err != nil {
		return "", fmt.Errorf("storing receipt secret: %w", err)
	}
	return secret, nil
}
