package models

const (
	SessionCookieName = "sessionId"
	RefreshCookieName = "refreshToken"

	MwUserIDKey      = "userID"
	MwAuthChannelKey = "authChannel"

	AuthChannelSession = "session"
	AuthChannelToken   = "token"

	ProviderGoogle = "google"
)
