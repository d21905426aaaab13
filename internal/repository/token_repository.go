package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sports-booking-backend/internal/database"
	"github.com/iliyamo/sports-booking-backend/internal/model"
)

// TokenRepo persists and validates refresh tokens (only the hash is stored).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, tenantID, userID uint64, tokenHash string, exp time.Time) error {
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO refresh_tokens (tenant_id, user_id, token_hash, expires_at) VALUES (?,?,?,?)",
		tenantID, userID, tokenHash, exp.UTC())
	return mapError(err)
}

// ValidateRefresh returns the token row if it is neither revoked nor expired.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := database.Conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT id, tenant_id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.TenantID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &t, nil
}

// RevokeByHash marks a token as revoked.  Revoking twice reports ErrNotFound,
// which rotation relies on to detect a replayed token.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return err
	}
	return affected(res)
}

// RevokeAllForUser revokes all of the user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := database.Conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
