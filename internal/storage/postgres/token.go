package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

type RefreshTokenRepository struct {
	db storage.DBTX
}

func NewRefreshTokenRepository(db storage.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) CreateRefreshToken(ctx context.Context, token models.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, refresh_token, user_account_id, user_agent, ip, fingerprint, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.Token,
		token.UserAccountID,
		token.UserAgent,
		token.IP,
		token.Fingerprint,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	query := `SELECT id, refresh_token, user_account_id, user_agent, ip, fingerprint, expires_at, created_at
		FROM refresh_tokens WHERE refresh_token = $1`
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.UserAccountID,
		&rt.UserAgent,
		&rt.IP,
		&rt.Fingerprint,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepository) CountOtherRefreshTokens(ctx context.Context, userAccountID, excludeID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM refresh_tokens WHERE user_account_id = $1 AND id <> $2`
	if err := r.db.QueryRowContext(ctx, query, userAccountID, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count refresh tokens: %w", err)
	}
	return count, nil
}

func (r *RefreshTokenRepository) DeleteOtherRefreshTokensByID(ctx context.Context, userAccountID, keepID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_account_id = $1 AND id <> $2`
	_, err := r.db.ExecContext(ctx, query, userAccountID, keepID)
	if err != nil {
		return fmt.Errorf("failed to delete other refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens prunes rows the JWT layer would reject
// anyway. Called opportunistically during rotation, never from a sweep.
func (r *RefreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context, userAccountID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_account_id = $1 AND expires_at < $2`
	_, err := r.db.ExecContext(ctx, query, userAccountID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) deleteRefreshTokenRows(ctx context.Context, token string) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE refresh_token = $1`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if _, err := r.deleteRefreshTokenRows(ctx, token); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteAllRefreshTokens(ctx context.Context, userAccountID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_account_id = $1`
	_, err := r.db.ExecContext(ctx, query, userAccountID)
	if err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

// DeleteOtherRefreshTokens keeps the presented token alive.
func (r *RefreshTokenRepository) DeleteOtherRefreshTokens(ctx context.Context, userAccountID, keepToken string) error {
	query := `DELETE FROM refresh_tokens WHERE user_account_id = $1 AND refresh_token <> $2`
	_, err := r.db.ExecContext(ctx, query, userAccountID, keepToken)
	if err != nil {
		return fmt.Errorf("delete other user refresh tokens: %w", err)
	}
	return nil
}
