package models

type LoginGoogleRequest struct {
	Token       string `json:"token"`
	Provider    string `json:"provider,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

type SessionUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	AvatarColor string `json:"avatarColor"`
}

func NewSessionUser(u *UserAccount) SessionUser {
	return SessionUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		AvatarColor: u.AvatarColor,
	}
}

// UserIdentity is the per-request client fingerprint attached to every
// credential row.
type UserIdentity struct {
	UserAgent   string `json:"user_agent"`
	IPAddress   string `json:"ip_address"`
	Fingerprint string `json:"fingerprint"`
}
