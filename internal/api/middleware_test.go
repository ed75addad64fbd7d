package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/storage/memory"
	"github.com/draglane/backend/internal/util"
)

type guardFixture struct {
	guard    *AuthGuard
	sessions *service.SessionService
	tokens   *service.TokenService
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	store := memory.NewStorage()
	log := zap.NewNop().Sugar()
	credCfg := &util.CredentialConfig{MaxSessions: 5, MaxRefreshTokens: 5}

	sessions := service.NewSessionService(store, credCfg, log)
	tokens := service.NewTokenService(
		&util.TokenConfig{
			JwtSecretKey: []byte("test-secret-key"),
			Issuer:       "draglane",
			AccessTTL:    time.Minute,
			RefreshTTL:   time.Hour,
		},
		credCfg, store, memory.NewDenylist(), log,
	)

	return &guardFixture{
		guard:    NewAuthGuard(sessions, tokens, log, []string{"GET /ping"}),
		sessions: sessions,
		tokens:   tokens,
	}
}

// invoke runs the guard middleware around a recording handler and returns
// the principal and channel it resolved.
func (f *guardFixture) invoke(t *testing.T, req *http.Request, path string) (string, string, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	var userID, channel string
	handler := f.guard.Middleware()(func(c echo.Context) error {
		userID, _ = c.Get(models.MwUserIDKey).(string)
		channel, _ = c.Get(models.MwAuthChannelKey).(string)
		return c.NoContent(http.StatusOK)
	})

	return userID, channel, handler(c)
}

func TestGuardRejectsAnonymousRequest(t *testing.T) {
	f := newGuardFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	_, _, err := f.invoke(t, req, "/auth/session")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestGuardAllowsPublicRoute(t *testing.T) {
	f := newGuardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	userID, _, err := f.invoke(t, req, "/ping")
	if err != nil {
		t.Fatalf("public route: %v", err)
	}
	if userID != "" {
		t.Errorf("public route resolved a principal: %q", userID)
	}
}

func TestGuardResolvesSessionCookie(t *testing.T) {
	f := newGuardFixture(t)

	sessionID, err := f.sessions.CreateSession(context.Background(), "user-1", models.UserIdentity{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: sessionID})

	userID, channel, err := f.invoke(t, req, "/auth/session")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("got userID %q, want %q", userID, "user-1")
	}
	if channel != models.AuthChannelSession {
		t.Errorf("got channel %q, want %q", channel, models.AuthChannelSession)
	}
}

func TestGuardResolvesBearerToken(t *testing.T) {
	f := newGuardFixture(t)

	pair, err := f.tokens.IssueTokens(context.Background(), "user-2", models.UserIdentity{})
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)

	userID, channel, err := f.invoke(t, req, "/auth/session")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if userID != "user-2" {
		t.Errorf("got userID %q, want %q", userID, "user-2")
	}
	if channel != models.AuthChannelToken {
		t.Errorf("got channel %q, want %q", channel, models.AuthChannelToken)
	}
}

func TestGuardSessionWinsOverBearer(t *testing.T) {
	f := newGuardFixture(t)

	sessionID, err := f.sessions.CreateSession(context.Background(), "session-user", models.UserIdentity{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: sessionID})
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-even-a-jwt")

	userID, channel, err := f.invoke(t, req, "/auth/session")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if userID != "session-user" || channel != models.AuthChannelSession {
		t.Errorf("got %q via %q, want session-user via session channel", userID, channel)
	}
}

func TestGuardStaleCookieFallsThroughToBearer(t *testing.T) {
	f := newGuardFixture(t)

	pair, err := f.tokens.IssueTokens(context.Background(), "token-user", models.UserIdentity{})
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: "long-gone-session"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)

	userID, channel, err := f.invoke(t, req, "/auth/session")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	if userID != "token-user" || channel != models.AuthChannelToken {
		t.Errorf("got %q via %q, want token-user via token channel", userID, channel)
	}
}

func TestGuardRejectsExpiredBearer(t *testing.T) {
	f := newGuardFixture(t)

	expired := service.NewTokenService(
		&util.TokenConfig{
			JwtSecretKey: []byte("test-secret-key"),
			Issuer:       "draglane",
			AccessTTL:    -time.Hour,
			RefreshTTL:   time.Hour,
		},
		&util.CredentialConfig{MaxSessions: 5, MaxRefreshTokens: 5},
		memory.NewStorage(), memory.NewDenylist(), zap.NewNop().Sugar(),
	)
	pair, err := expired.IssueTokens(context.Background(), "user-3", models.UserIdentity{})
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)

	if _, _, err := f.invoke(t, req, "/auth/session"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}
