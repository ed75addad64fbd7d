package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
	"github.com/draglane/backend/internal/storage/memory"
	"github.com/draglane/backend/internal/util"
)

func newTestSessionService(store *memory.Storage) *SessionService {
	return NewSessionService(store, &util.CredentialConfig{MaxSessions: 5, MaxRefreshTokens: 5}, zap.NewNop().Sugar())
}

func TestGenerateSessionID(t *testing.T) {
	first, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID: %v", err)
	}
	second, err := generateSessionID()
	if err != nil {
		t.Fatalf("generateSessionID: %v", err)
	}

	if len(first) != 64 {
		t.Errorf("got id of length %d, want 64 hex chars", len(first))
	}
	if first == second {
		t.Error("two generated session ids collided")
	}
}

func TestCreateAndGetSession(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	sessionID, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	session, err := ss.GetSessionByID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if session.UserAccountID != "user-1" {
		t.Errorf("got owner %q, want %q", session.UserAccountID, "user-1")
	}

	firstAccess := session.LastAccessAt
	time.Sleep(5 * time.Millisecond)

	session, err = ss.GetSessionByID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if !session.LastAccessAt.After(firstAccess) {
		t.Error("expected lookup to extend last access time")
	}
}

func TestGetSessionUnknownID(t *testing.T) {
	ss := newTestSessionService(memory.NewStorage())

	if _, err := ss.GetSessionByID(context.Background(), "missing"); !errors.Is(err, storage.ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestSessionCapWipesOnExceed(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp"))
		if err != nil {
			t.Fatalf("CreateSession #%d: %v", i+1, err)
		}
		ids = append(ids, id)
	}
	if got := store.CountSessions("user-1"); got != 5 {
		t.Fatalf("got %d sessions at cap, want 5", got)
	}

	sixth, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("CreateSession over cap: %v", err)
	}
	if got := store.CountSessions("user-1"); got != 1 {
		t.Fatalf("got %d sessions after exceeding cap, want 1", got)
	}

	if _, err := ss.GetSessionByID(context.Background(), sixth); err != nil {
		t.Errorf("newest session rejected after wipe: %v", err)
	}
	for _, id := range ids {
		if _, err := ss.GetSessionByID(context.Background(), id); !errors.Is(err, storage.ErrSessionNotFound) {
			t.Errorf("wiped session %s still resolves", id[:8])
		}
	}
}

func TestSessionCapDoesNotCrossAccounts(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	for i := 0; i < 6; i++ {
		if _, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	if _, err := ss.CreateSession(context.Background(), "user-2", testIdentity("fp")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if got := store.CountSessions("user-2"); got != 1 {
		t.Errorf("got %d sessions for other account, want 1", got)
	}
}

func TestDeleteSessionIdempotent(t *testing.T) {
	ss := newTestSessionService(memory.NewStorage())

	sessionID, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := ss.DeleteSession(context.Background(), sessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := ss.DeleteSession(context.Background(), sessionID); err != nil {
		t.Errorf("second DeleteSession: %v", err)
	}
	if err := ss.DeleteSession(context.Background(), "never-existed"); err != nil {
		t.Errorf("DeleteSession of unknown id: %v", err)
	}
}

func TestDeleteOtherSessionsKeepsCurrent(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	for i := 0; i < 3; i++ {
		if _, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	current, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := ss.DeleteOtherSessions(context.Background(), "user-1", current); err != nil {
		t.Fatalf("DeleteOtherSessions: %v", err)
	}

	if got := store.CountSessions("user-1"); got != 1 {
		t.Fatalf("got %d sessions, want 1", got)
	}
	if _, err := ss.GetSessionByID(context.Background(), current); err != nil {
		t.Errorf("current session rejected after logout-all: %v", err)
	}
}

func TestDeleteAllSessions(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	for i := 0; i < 3; i++ {
		if _, err := ss.CreateSession(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	if _, err := ss.CreateSession(context.Background(), "user-2", testIdentity("fp")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := ss.DeleteAllSessions(context.Background(), "user-1"); err != nil {
		t.Fatalf("DeleteAllSessions: %v", err)
	}

	if got := store.CountSessions("user-1"); got != 0 {
		t.Errorf("got %d sessions, want 0", got)
	}
	if got := store.CountSessions("user-2"); got != 1 {
		t.Errorf("other account lost sessions: got %d, want 1", got)
	}
}

func TestGetSessionUserByID(t *testing.T) {
	store := memory.NewStorage()
	ss := newTestSessionService(store)

	account := models.UserAccount{
		ID:       uuid.NewString(),
		Email:    "ivan@mail.ru",
		Username: "ivan@mail.ru",
	}
	creds := models.SocialCredentials{
		ID:             uuid.NewString(),
		ProviderType:   models.ProviderGoogle,
		ProviderUserID: "google-sub-1",
	}
	if _, err := store.CreateUserWithCredentialsTx(context.Background(), account, creds); err != nil {
		t.Fatalf("CreateUserWithCredentialsTx: %v", err)
	}

	sessionID, err := ss.CreateSession(context.Background(), account.ID, testIdentity("fp"))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	user, err := ss.GetSessionUserByID(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSessionUserByID: %v", err)
	}
	if user.ID != account.ID || user.Email != "ivan@mail.ru" {
		t.Errorf("got user %+v, want account %s", user, account.ID)
	}
}
