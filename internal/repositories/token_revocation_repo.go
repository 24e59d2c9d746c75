package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vicbox/starterkit/internal/database"
	"github.com/vicbox/starterkit/internal/models"
)

// TokenRevocationRepository stores signed-out token ids until they would have expired anyway
type TokenRevocationRepository struct {
	db *database.DB
}

// NewTokenRevocationRepository creates a new TokenRevocationRepository
func NewTokenRevocationRepository(db *database.DB) *TokenRevocationRepository {
	return &TokenRevocationRepository{db: db}
}

// Revoke blacklists a single token. Revoking the same jti twice is a no-op.
func (r *TokenRevocationRepository) Revoke(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
	query := `
		INSERT INTO revoked_tokens (id, jti, user_id, token_type, expires_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, uuid.New().String(), jti, userID, tokenType, expiresAt, reason)
	return database.MapPostgresError(err)
}

// RevokeAllForUser records a cutoff: every token of the user issued before now
// is rejected until expiresAt, which must cover the longest token lifetime.
func (r *TokenRevocationRepository) RevokeAllForUser(ctx context.Context, userID string, expiresAt time.Time, reason string) error {
	query := `
		INSERT INTO revoked_tokens (id, jti, user_id, token_type, expires_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.New().String()
	_, err := r.db.Pool.Exec(ctx, query, id, "all:"+id, userID, models.TokenTypeAll, expiresAt, reason)
	return database.MapPostgresError(err)
}

// IsRevoked reports whether the token was revoked on its own or by a
// sign-out-everywhere issued after it. Token issue times carry whole seconds,
// so a token issued in the same second as the cutoff counts as revoked.
func (r *TokenRevocationRepository) IsRevoked(ctx context.Context, jti, userID string, issuedAt time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM revoked_tokens
			WHERE jti = $1
			   OR (user_id = $2 AND token_type = $3 AND revoked_at >= $4)
		)
	`

	var revoked bool
	if err := r.db.Pool.QueryRow(ctx, query, jti, userID, models.TokenTypeAll, issuedAt).Scan(&revoked); err != nil {
		return false, database.MapPostgresError(err)
	}
	return revoked, nil
}

// DeleteExpired drops entries whose tokens can no longer validate
func (r *TokenRevocationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
