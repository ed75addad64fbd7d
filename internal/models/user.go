package models

import "time"

type UserAccount struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	AvatarColor string    `json:"avatarColor"`
	CreatedAt   time.Time `json:"created_at"`
}

// SocialCredentials links a local account to the external identity that
// created it. One row per (providerType, providerUserId) pair.
type SocialCredentials struct {
	ID             string `json:"id"`
	UserAccountID  string `json:"user_account_id"`
	ProviderType   string `json:"provider_type"`
	ProviderUserID string `json:"provider_user_id"`
}

// ExternalIdentity is the normalized result of an OAuth userinfo exchange.
type ExternalIdentity struct {
	ProviderType   string
	ProviderUserID string
	Email          string
	FirstName      string
	LastName       string
}
