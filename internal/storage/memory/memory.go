// Package memory provides a mutex-guarded in-memory Storage used by
// tests. Semantics mirror the postgres implementation, including the
// wipe-on-exceed eviction and the single-delete rotation race.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

type Storage struct {
	mu       sync.RWMutex
	users    map[string]models.UserAccount       // keyed by account id
	creds    map[string]models.SocialCredentials // keyed by providerType+"/"+providerUserID
	sessions map[string]models.Session           // keyed by sessionId
	tokens   map[string]models.RefreshToken      // keyed by token string
}

func NewStorage() *Storage {
	return &Storage{
		users:    make(map[string]models.UserAccount),
		creds:    make(map[string]models.SocialCredentials),
		sessions: make(map[string]models.Session),
		tokens:   make(map[string]models.RefreshToken),
	}
}

func (m *Storage) GetUserByID(_ context.Context, id string) (*models.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (m *Storage) GetUserByEmail(_ context.Context, email string) (*models.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *Storage) GetUserByProviderID(_ context.Context, providerType, providerUserID string) (*models.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.creds[providerType+"/"+providerUserID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	user, ok := m.users[creds.UserAccountID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (m *Storage) CreateUserWithCredentialsTx(_ context.Context, user models.UserAccount, creds models.SocialCredentials) (*models.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.CreatedAt = time.Now()
	m.users[user.ID] = user

	creds.UserAccountID = user.ID
	m.creds[creds.ProviderType+"/"+creds.ProviderUserID] = creds

	return &user, nil
}

func (m *Storage) GetSessionByID(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	session.LastAccessAt = time.Now()
	m.sessions[sessionID] = session

	return &session, nil
}

func (m *Storage) GetSessionUserByID(ctx context.Context, sessionID string) (*models.UserAccount, error) {
	session, err := m.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[session.UserAccountID]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return &user, nil
}

func (m *Storage) CreateSessionTx(_ context.Context, session models.Session, maxSessions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	session.CreatedAt = now
	session.LastAccessAt = now
	m.sessions[session.SessionID] = session

	others := 0
	for _, s := range m.sessions {
		if s.UserAccountID == session.UserAccountID && s.ID != session.ID {
			others++
		}
	}
	if others >= maxSessions {
		for id, s := range m.sessions {
			if s.UserAccountID == session.UserAccountID && s.ID != session.ID {
				delete(m.sessions, id)
			}
		}
	}

	return nil
}

func (m *Storage) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func (m *Storage) DeleteAllSessions(_ context.Context, userAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.UserAccountID == userAccountID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *Storage) DeleteOtherSessions(_ context.Context, userAccountID, keepSessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.UserAccountID == userAccountID && s.SessionID != keepSessionID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// CountSessions is a test helper; the SQL storage counts inside its
// transactions instead.
func (m *Storage) CountSessions(userAccountID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, s := range m.sessions {
		if s.UserAccountID == userAccountID {
			count++
		}
	}
	return count
}

func (m *Storage) GetRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, ok := m.tokens[token]
	if !ok {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return &rt, nil
}

func (m *Storage) CreateRefreshTokenTx(_ context.Context, token models.RefreshToken, maxTokens int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertTokenWithEviction(token, maxTokens)
	return nil
}

func (m *Storage) RotateRefreshTokenTx(_ context.Context, oldToken string, newToken models.RefreshToken, maxTokens int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[oldToken]; !ok {
		return storage.ErrRefreshTokenNotFound
	}
	delete(m.tokens, oldToken)

	now := time.Now().Unix()
	for t, rt := range m.tokens {
		if rt.UserAccountID == newToken.UserAccountID && rt.ExpiresAt < now {
			delete(m.tokens, t)
		}
	}

	m.insertTokenWithEviction(newToken, maxTokens)
	return nil
}

func (m *Storage) insertTokenWithEviction(token models.RefreshToken, maxTokens int) {
	token.CreatedAt = time.Now()
	m.tokens[token.Token] = token

	others := 0
	for _, rt := range m.tokens {
		if rt.UserAccountID == token.UserAccountID && rt.ID != token.ID {
			others++
		}
	}
	if others >= maxTokens {
		for t, rt := range m.tokens {
			if rt.UserAccountID == token.UserAccountID && rt.ID != token.ID {
				delete(m.tokens, t)
			}
		}
	}
}

func (m *Storage) DeleteRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, token)
	return nil
}

func (m *Storage) DeleteAllRefreshTokens(_ context.Context, userAccountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, rt := range m.tokens {
		if rt.UserAccountID == userAccountID {
			delete(m.tokens, t)
		}
	}
	return nil
}

func (m *Storage) DeleteOtherRefreshTokens(_ context.Context, userAccountID, keepToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for t, rt := range m.tokens {
		if rt.UserAccountID == userAccountID && t != keepToken {
			delete(m.tokens, t)
		}
	}
	return nil
}

// CountRefreshTokens is a test helper.
func (m *Storage) CountRefreshTokens(userAccountID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, rt := range m.tokens {
		if rt.UserAccountID == userAccountID {
			count++
		}
	}
	return count
}
