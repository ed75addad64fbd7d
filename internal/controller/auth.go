package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/storage"
)

func sessionCookie(sessionID string) *http.Cookie {
	return &http.Cookie{
		Name:     models.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredSessionCookie() *http.Cookie {
	c := sessionCookie("")
	c.MaxAge = -1
	return c
}

// LoginGoogle (POST /auth/login/google) exchanges the provider token for
// an account, opens a session and sets the session cookie.
func (c *Controller) LoginGoogle(ctx echo.Context) error {
	var req models.LoginGoogleRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	user, err := c.auth.SignIn(ctx.Request().Context(), providerOrDefault(req.Provider), req.Token)
	if err != nil {
		return err
	}

	sessionID, err := c.sessions.CreateSession(ctx.Request().Context(), user.ID, userIdentity(ctx, req.Fingerprint))
	if err != nil {
		return err
	}

	ctx.SetCookie(sessionCookie(sessionID))
	return ctx.JSON(http.StatusCreated, models.NewSessionUser(user))
}

// GetSessionUser (POST /auth/session) resolves the caller's profile. The
// session cookie is preferred; a bearer principal resolved by the guard
// works too.
func (c *Controller) GetSessionUser(ctx echo.Context) error {
	if sessionID := cookieValue(ctx, models.SessionCookieName); sessionID != "" {
		user, err := c.sessions.GetSessionUserByID(ctx.Request().Context(), sessionID)
		if err == nil {
			return ctx.JSON(http.StatusOK, models.NewSessionUser(user))
		}
		if !errors.Is(err, storage.ErrSessionNotFound) {
			return err
		}
	}

	userID, ok := ctx.Get(models.MwUserIDKey).(string)
	if !ok || userID == "" {
		return service.ErrUnauthorized
	}

	user, err := c.auth.GetMe(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, models.NewSessionUser(user))
}

// Logout (POST /auth/logout) deletes the current session and clears the
// cookie. Deleting an already-gone session still succeeds.
func (c *Controller) Logout(ctx echo.Context) error {
	if sessionID := cookieValue(ctx, models.SessionCookieName); sessionID != "" {
		if err := c.sessions.DeleteSession(ctx.Request().Context(), sessionID); err != nil {
			return err
		}
	}

	ctx.SetCookie(expiredSessionCookie())
	return ctx.NoContent(http.StatusNoContent)
}

// LogoutAll (POST /auth/logout-all) deletes every other session of the
// account; the one backing this request survives.
func (c *Controller) LogoutAll(ctx echo.Context) error {
	userID, ok := ctx.Get(models.MwUserIDKey).(string)
	if !ok || userID == "" {
		return service.ErrUnauthorized
	}

	keep := cookieValue(ctx, models.SessionCookieName)
	if err := c.sessions.DeleteOtherSessions(ctx.Request().Context(), userID, keep); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
