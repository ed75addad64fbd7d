package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage/memory"
	"github.com/draglane/backend/internal/util"
)

func newTestTokenService(t *testing.T, store *memory.Storage) *TokenService {
	t.Helper()

	cfg := &util.TokenConfig{
		JwtSecretKey: []byte("test-secret-key"),
		Issuer:       "draglane",
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
	}
	credCfg := &util.CredentialConfig{MaxSessions: 5, MaxRefreshTokens: 5}

	return NewTokenService(cfg, credCfg, store, memory.NewDenylist(), zap.NewNop().Sugar())
}

func testIdentity(fingerprint string) models.UserIdentity {
	return models.UserIdentity{
		UserAgent:   "go-test",
		IPAddress:   "127.0.0.1",
		Fingerprint: fingerprint,
	}
}

func TestIssueTokensRoundTrip(t *testing.T) {
	ts := newTestTokenService(t, memory.NewStorage())

	pair, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := ts.VerifyAccessToken(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("got userID %q, want %q", claims.UserID, "user-1")
	}
	if claims.Issuer != "draglane" {
		t.Errorf("got issuer %q, want %q", claims.Issuer, "draglane")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	pair, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	newPair, err := ts.Refresh(context.Background(), pair.RefreshToken, testIdentity("fp"))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must mint a new refresh token")
	}
	if got := store.CountRefreshTokens("user-1"); got != 1 {
		t.Errorf("got %d stored tokens after rotation, want 1", got)
	}

	// The consumed token is dead for good.
	if _, err := ts.Refresh(context.Background(), pair.RefreshToken, testIdentity("fp")); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("reused refresh token: got %v, want ErrRefreshTokenInvalid", err)
	}

	// The replacement still works.
	if _, err := ts.Refresh(context.Background(), newPair.RefreshToken, testIdentity("fp")); err != nil {
		t.Errorf("fresh refresh token rejected: %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	ts := newTestTokenService(t, memory.NewStorage())

	// Correctly signed but never persisted.
	token, err := ts.createToken("user-1", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("createToken: %v", err)
	}

	if _, err := ts.Refresh(context.Background(), token, testIdentity("fp")); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("got %v, want ErrRefreshTokenInvalid", err)
	}
}

func TestRefreshTokenCapWipesOnExceed(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	for i := 0; i < 5; i++ {
		if _, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("IssueTokens #%d: %v", i+1, err)
		}
	}
	if got := store.CountRefreshTokens("user-1"); got != 5 {
		t.Fatalf("got %d tokens at cap, want 5", got)
	}

	pair, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("IssueTokens over cap: %v", err)
	}
	if got := store.CountRefreshTokens("user-1"); got != 1 {
		t.Fatalf("got %d tokens after exceeding cap, want 1", got)
	}

	// The survivor is the newest one.
	if _, err := ts.Refresh(context.Background(), pair.RefreshToken, testIdentity("fp")); err != nil {
		t.Errorf("newest token rejected after wipe: %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	ts := newTestTokenService(t, memory.NewStorage())

	token, err := ts.createToken("user-1", time.Now().Add(-2*time.Hour), time.Minute)
	if err != nil {
		t.Fatalf("createToken: %v", err)
	}

	if _, err := ts.VerifyToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTokenWrongIssuer(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	other := NewTokenService(
		&util.TokenConfig{
			JwtSecretKey: []byte("test-secret-key"),
			Issuer:       "someone-else",
			AccessTTL:    time.Minute,
			RefreshTTL:   time.Hour,
		},
		&util.CredentialConfig{MaxSessions: 5, MaxRefreshTokens: 5},
		store, memory.NewDenylist(), zap.NewNop().Sugar(),
	)

	foreign, err := other.createToken("user-1", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("createToken: %v", err)
	}

	if _, err := ts.VerifyToken(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	ts := newTestTokenService(t, memory.NewStorage())

	if _, err := ts.VerifyToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestDeleteTokenFingerprintMismatch(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	pair, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp-a"))
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	err = ts.DeleteToken(context.Background(), pair.RefreshToken, testIdentity("fp-b"))
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("got %v, want ErrAuthenticationFailed", err)
	}

	// The mismatched credential was destroyed, not left behind.
	if got := store.CountRefreshTokens("user-1"); got != 0 {
		t.Errorf("got %d tokens after fingerprint mismatch, want 0", got)
	}
}

func TestDeleteOtherTokensKeepsCurrent(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	for i := 0; i < 2; i++ {
		if _, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("IssueTokens #%d: %v", i+1, err)
		}
	}
	current, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	if err := ts.DeleteOtherTokens(context.Background(), current.RefreshToken, testIdentity("fp")); err != nil {
		t.Fatalf("DeleteOtherTokens: %v", err)
	}

	if got := store.CountRefreshTokens("user-1"); got != 1 {
		t.Fatalf("got %d tokens, want 1", got)
	}
	if _, err := ts.Refresh(context.Background(), current.RefreshToken, testIdentity("fp")); err != nil {
		t.Errorf("current token rejected after logout-all: %v", err)
	}
}

func TestDeleteAllRefreshTokens(t *testing.T) {
	store := memory.NewStorage()
	ts := newTestTokenService(t, store)

	for i := 0; i < 3; i++ {
		if _, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp")); err != nil {
			t.Fatalf("IssueTokens: %v", err)
		}
	}
	if _, err := ts.IssueTokens(context.Background(), "user-2", testIdentity("fp")); err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	if err := store.DeleteAllRefreshTokens(context.Background(), "user-1"); err != nil {
		t.Fatalf("DeleteAllRefreshTokens: %v", err)
	}

	if got := store.CountRefreshTokens("user-1"); got != 0 {
		t.Errorf("got %d tokens, want 0", got)
	}
	if got := store.CountRefreshTokens("user-2"); got != 1 {
		t.Errorf("other account lost tokens: got %d, want 1", got)
	}
}

func TestInvalidatedAccessTokenIsRevoked(t *testing.T) {
	ts := newTestTokenService(t, memory.NewStorage())

	pair, err := ts.IssueTokens(context.Background(), "user-1", testIdentity("fp"))
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	if err := ts.InvalidateAccessToken(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("InvalidateAccessToken: %v", err)
	}

	if _, err := ts.VerifyAccessToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("got %v, want ErrTokenRevoked", err)
	}

	// Plain verification still passes; only the denylist channel rejects.
	if _, err := ts.VerifyToken(pair.AccessToken); err != nil {
		t.Errorf("VerifyToken: %v", err)
	}
}
