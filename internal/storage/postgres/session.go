package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.Session) error {
	query := `INSERT INTO sessions (id, session_id, user_account_id, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.SessionID,
		session.UserAccountID,
		session.UserAgent,
		session.IP,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSessionByID refreshes last_access_at in the same statement, so every
// successful lookup extends the session (last-writer-wins on the
// timestamp).
func (r *SessionRepository) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	query := `UPDATE sessions SET last_access_at = NOW() WHERE session_id = $1
		RETURNING id, session_id, user_account_id, user_agent, ip, created_at, last_access_at`
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.SessionID,
		&session.UserAccountID,
		&session.UserAgent,
		&session.IP,
		&session.CreatedAt,
		&session.LastAccessAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) GetSessionUserByID(ctx context.Context, sessionID string) (*models.UserAccount, error) {
	query := `WITH touched AS (
			UPDATE sessions SET last_access_at = NOW() WHERE session_id = $1
			RETURNING user_account_id
		)
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar_color, u.created_at
		FROM user_accounts u
		JOIN touched t ON t.user_account_id = u.id`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session user: %w", err)
	}
	return user, nil
}

func (r *SessionRepository) CountOtherSessions(ctx context.Context, userAccountID, excludeID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sessions WHERE user_account_id = $1 AND id <> $2`
	if err := r.db.QueryRowContext(ctx, query, userAccountID, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// DeleteOtherSessionsByID removes every session of the owner except the
// row with the given primary key.
func (r *SessionRepository) DeleteOtherSessionsByID(ctx context.Context, userAccountID, keepID string) error {
	query := `DELETE FROM sessions WHERE user_account_id = $1 AND id <> $2`
	_, err := r.db.ExecContext(ctx, query, userAccountID, keepID)
	if err != nil {
		return fmt.Errorf("failed to delete other sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessions WHERE session_id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteAllSessions(ctx context.Context, userAccountID string) error {
	query := `DELETE FROM sessions WHERE user_account_id = $1`
	_, err := r.db.ExecContext(ctx, query, userAccountID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteOtherSessions keeps the caller's current session alive.
func (r *SessionRepository) DeleteOtherSessions(ctx context.Context, userAccountID, keepSessionID string) error {
	query := `DELETE FROM sessions WHERE user_account_id = $1 AND session_id <> $2`
	_, err := r.db.ExecContext(ctx, query, userAccountID, keepSessionID)
	if err != nil {
		return fmt.Errorf("delete other user sessions: %w", err)
	}
	return nil
}
