package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
	"github.com/draglane/backend/internal/util"
)

// SessionService owns the opaque cookie session lifecycle, including the
// wipe-on-exceed cap.
type SessionService struct {
	storage     storage.Storage
	maxSessions int
	log         *zap.SugaredLogger
}

func NewSessionService(s storage.Storage, cfg *util.CredentialConfig, log *zap.SugaredLogger) *SessionService {
	return &SessionService{
		storage:     s,
		maxSessions: cfg.MaxSessions,
		log:         log,
	}
}

// generateSessionID hashes a fresh UUID together with 256 CSPRNG bytes,
// so the id stays unguessable even if one entropy source disappoints.
func generateSessionID() (string, error) {
	random := make([]byte, util.SessionIDRandomBytes)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(uuid.NewString()))
	h.Write(random)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// CreateSession inserts a session for the owner. If the owner already
// holds the maximum number of sessions, all prior ones are wiped in the
// same transaction.
func (ss *SessionService) CreateSession(ctx context.Context, userAccountID string, identity models.UserIdentity) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	session := models.Session{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		UserAccountID: userAccountID,
		UserAgent:     identity.UserAgent,
		IP:            identity.IPAddress,
	}

	if err := ss.storage.CreateSessionTx(ctx, session, ss.maxSessions); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return sessionID, nil
}

// GetSessionByID extends the session's last access time as a side effect
// of the hit. A miss returns storage.ErrSessionNotFound.
func (ss *SessionService) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	return ss.storage.GetSessionByID(ctx, sessionID)
}

// GetSessionUserByID is the same lookup joined with the owning account.
func (ss *SessionService) GetSessionUserByID(ctx context.Context, sessionID string) (*models.UserAccount, error) {
	return ss.storage.GetSessionUserByID(ctx, sessionID)
}

// DeleteSession is idempotent: deleting a missing session is not an error.
func (ss *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	return ss.storage.DeleteSession(ctx, sessionID)
}

func (ss *SessionService) DeleteAllSessions(ctx context.Context, userAccountID string) error {
	return ss.storage.DeleteAllSessions(ctx, userAccountID)
}

// DeleteOtherSessions implements "logout everywhere else": the caller's
// current session survives.
func (ss *SessionService) DeleteOtherSessions(ctx context.Context, userAccountID, keepSessionID string) error {
	return ss.storage.DeleteOtherSessions(ctx, userAccountID, keepSessionID)
}
