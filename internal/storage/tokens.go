package storage

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a token id so every instance sharing this store rejects
// it until it would have expired anyway.
func (s *SQLiteStorage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.revokeToken(ctx, s.db, jti, expiresAt)
}

func (s *SQLiteStorage) revokeToken(ctx context.Context, q dbtx, jti string, expiresAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(jti, "jti"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO revoked_tokens (jti, expires_at)
		VALUES (?, ?)`, jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", mapSQLiteError(err))
	}
	return nil
}

// IsTokenRevoked reports whether the token id has been revoked and is still
// within its lifetime.
func (s *SQLiteStorage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.isTokenRevoked(ctx, s.db, jti)
}

func (s *SQLiteStorage) isTokenRevoked(ctx context.Context, q dbtx, jti string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(jti, "jti"); err != nil {
		return false, err
	}

	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ? AND expires_at > ?`,
		jti, time.Now().UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return count > 0, nil
}

// PurgeExpiredTokens removes revocation rows whose tokens have expired.
func (s *SQLiteStorage) PurgeExpiredTokens(ctx context.Context, now time.Time) error {
	return s.purgeExpiredTokens(ctx, s.db, now)
}

func (s *SQLiteStorage) purgeExpiredTokens(ctx context.Context, q dbtx, now time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return fmt.Errorf("failed to purge expired tokens: %w", mapSQLiteError(err))
	}
	return nil
}
