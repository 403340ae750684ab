package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateAuthToken stores the hash of a one-time token for userID.
func (db *DB) CreateAuthToken(ctx context.Context, userID uuid.UUID, purpose TokenPurpose, tokenHash string, expiresAt time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO auth_tokens (token_hash, user_id, purpose, expires_at) VALUES ($1, $2, $3, $4)`,
		tokenHash, userID, string(purpose), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth token: %w", err)
	}
	return nil
}

// ConsumeAuthToken deletes a live token and returns its user.
// Expired, unknown and wrong-purpose tokens return ErrTokenNotFound.
func (db *DB) ConsumeAuthToken(ctx context.Context, tokenHash string, purpose TokenPurpose) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.pool.QueryRow(ctx,
		`DELETE FROM auth_tokens
		 WHERE token_hash = $1 AND purpose = $2 AND expires_at > NOW()
		 RETURNING user_id`,
		tokenHash, string(purpose),
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume auth token: %w", err)
	}
	return userID, nil
}

// PurgeExpiredTokens removes tokens past their expiry and returns how many were deleted.
func (db *DB) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
