package models

import "time"

// Session binds an opaque cookie token to an account. SessionID is the
// cookie value and is never derived from the primary key.
type Session struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	UserAccountID string    `json:"user_account_id"`
	UserAgent     string    `json:"user_agent"`
	IP            string    `json:"ip"`
	CreatedAt     time.Time `json:"created_at"`
	LastAccessAt  time.Time `json:"last_access_at"`
}

// RefreshToken is one unconsumed rotation step. The signed JWT itself is
// the lookup key; the row is deleted the moment it is exchanged.
type RefreshToken struct {
	ID            string    `json:"id"`
	Token         string    `json:"token"`
	UserAccountID string    `json:"user_account_id"`
	UserAgent     string    `json:"user_agent"`
	IP            string    `json:"ip"`
	Fingerprint   string    `json:"fingerprint"`
	ExpiresAt     int64     `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}
