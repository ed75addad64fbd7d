package service

import "errors"

var (
	// ErrInvalidToken: the OAuth provider rejected the presented token.
	// Transport failures collapse into it too; callers never learn which.
	ErrInvalidToken = errors.New("invalid oauth token")

	// ErrUnknownProvider: sign-in with a provider we are not configured for.
	ErrUnknownProvider = errors.New("unknown oauth provider")

	// ErrUnauthorized: no valid session or access token on the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshTokenInvalid: refresh token absent, expired or already
	// rotated. The client must fully re-authenticate.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")

	// ErrAuthenticationFailed: a credential resolved but its recorded
	// client fingerprint does not match the caller's.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrForbidden: principal resolved but lacks the required role.
	ErrForbidden = errors.New("forbidden")

	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)
