package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/draglane/backend/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	GetUserByProviderID(ctx context.Context, providerType, providerUserID string) (*models.UserAccount, error)
}

type SessionRepository interface {
	// GetSessionByID updates last_access_at as a side effect of a hit.
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
	// GetSessionUserByID is the same lookup joined with the owning account.
	GetSessionUserByID(ctx context.Context, sessionID string) (*models.UserAccount, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteAllSessions(ctx context.Context, userAccountID string) error
	DeleteOtherSessions(ctx context.Context, userAccountID, keepSessionID string) error
}

type RefreshTokenRepository interface {
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteAllRefreshTokens(ctx context.Context, userAccountID string) error
	DeleteOtherRefreshTokens(ctx context.Context, userAccountID, keepToken string) error
}

// Storage is the persistence boundary for accounts, sessions and refresh
// tokens. The *Tx methods run insert+evict (or delete+reissue) atomically;
// the caps are supplied by the services that own the eviction policy.
type Storage interface {
	UserRepository
	SessionRepository
	RefreshTokenRepository

	CreateUserWithCredentialsTx(ctx context.Context, user models.UserAccount, creds models.SocialCredentials) (*models.UserAccount, error)
	CreateSessionTx(ctx context.Context, session models.Session, maxSessions int) error
	CreateRefreshTokenTx(ctx context.Context, token models.RefreshToken, maxTokens int) error
	RotateRefreshTokenTx(ctx context.Context, oldToken string, newToken models.RefreshToken, maxTokens int) error
}

// DenylistStorage holds access tokens invalidated before their natural
// expiry (logout paths). Entries live no longer than the token itself.
type DenylistStorage interface {
	InvalidateToken(ctx context.Context, token string, expiration time.Duration) error
	IsTokenInvalidated(ctx context.Context, token string) (bool, error)
}
