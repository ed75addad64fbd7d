package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

type Storage struct {
	db *sql.DB
	*UserRepository
	*SessionRepository
	*RefreshTokenRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		SessionRepository:      NewSessionRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
	}
}

// CreateUserWithCredentialsTx inserts the account and its social
// credentials row in one transaction.
func (s *Storage) CreateUserWithCredentialsTx(ctx context.Context, user models.UserAccount, creds models.SocialCredentials) (*models.UserAccount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	userRepoTx := NewUserRepository(tx)

	created, err := userRepoTx.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user in tx: %w", err)
	}

	creds.UserAccountID = created.ID
	if err := userRepoTx.CreateSocialCredentials(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to create social credentials in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return created, nil
}

// CreateSessionTx inserts the session and, in the same transaction, wipes
// all of the owner's prior sessions once their count has reached the cap.
// Exceeding the cap forces re-authentication everywhere rather than
// trimming oldest-first.
func (s *Storage) CreateSessionTx(ctx context.Context, session models.Session, maxSessions int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sessionRepoTx := NewSessionRepository(tx)

	if err := sessionRepoTx.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to create session in tx: %w", err)
	}

	count, err := sessionRepoTx.CountOtherSessions(ctx, session.UserAccountID, session.ID)
	if err != nil {
		return fmt.Errorf("failed to count sessions in tx: %w", err)
	}
	if count >= maxSessions {
		if err := sessionRepoTx.DeleteOtherSessionsByID(ctx, session.UserAccountID, session.ID); err != nil {
			return fmt.Errorf("failed to evict sessions in tx: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CreateRefreshTokenTx mirrors CreateSessionTx for refresh tokens.
func (s *Storage) CreateRefreshTokenTx(ctx context.Context, token models.RefreshToken, maxTokens int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	tokenRepoTx := NewRefreshTokenRepository(tx)

	if err := insertTokenWithEviction(ctx, tokenRepoTx, token, maxTokens); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RotateRefreshTokenTx deletes the consumed token and persists its
// replacement atomically. Concurrent rotations of the same stale token
// race on the delete: exactly one sees an affected row, the rest get
// ErrRefreshTokenNotFound and roll back.
func (s *Storage) RotateRefreshTokenTx(ctx context.Context, oldToken string, newToken models.RefreshToken, maxTokens int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	tokenRepoTx := NewRefreshTokenRepository(tx)

	deleted, err := tokenRepoTx.deleteRefreshTokenRows(ctx, oldToken)
	if err != nil {
		return fmt.Errorf("failed to delete old token in tx: %w", err)
	}
	if deleted == 0 {
		return storage.ErrRefreshTokenNotFound
	}

	if err := tokenRepoTx.DeleteExpiredRefreshTokens(ctx, newToken.UserAccountID); err != nil {
		return fmt.Errorf("failed to prune expired tokens in tx: %w", err)
	}

	if err := insertTokenWithEviction(ctx, tokenRepoTx, newToken, maxTokens); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func insertTokenWithEviction(ctx context.Context, repo *RefreshTokenRepository, token models.RefreshToken, maxTokens int) error {
	if err := repo.CreateRefreshToken(ctx, token); err != nil {
		return fmt.Errorf("failed to create refresh token in tx: %w", err)
	}

	count, err := repo.CountOtherRefreshTokens(ctx, token.UserAccountID, token.ID)
	if err != nil {
		return fmt.Errorf("failed to count refresh tokens in tx: %w", err)
	}
	if count >= maxTokens {
		if err := repo.DeleteOtherRefreshTokensByID(ctx, token.UserAccountID, token.ID); err != nil {
			return fmt.Errorf("failed to evict refresh tokens in tx: %w", err)
		}
	}

	return nil
}
