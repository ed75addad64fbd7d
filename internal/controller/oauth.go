package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
)

func (c *Controller) refreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     models.RefreshCookieName,
		Value:    token,
		Path:     "/oauth",
		MaxAge:   int(c.tokenCfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *Controller) expiredRefreshCookie() *http.Cookie {
	cookie := c.refreshCookie("")
	cookie.MaxAge = -1
	return cookie
}

// refreshTokenFromRequest prefers the body, falling back to the cookie so
// browser clients never have to handle the refresh token in JS.
func refreshTokenFromRequest(ctx echo.Context, req *models.TokenRefreshRequest) string {
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	return cookieValue(ctx, models.RefreshCookieName)
}

// LoginGoogleTokens (POST /oauth/login/google) exchanges the provider
// token for an account and issues a JWT pair. The refresh token also
// travels as a cookie scoped to /oauth.
func (c *Controller) LoginGoogleTokens(ctx echo.Context) error {
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

	pair, err := c.tokens.IssueTokens(ctx.Request().Context(), user.ID, userIdentity(ctx, req.Fingerprint))
	if err != nil {
		return err
	}

	ctx.SetCookie(c.refreshCookie(pair.RefreshToken))
	return ctx.JSON(http.StatusCreated, pair)
}

// RefreshTokens (POST /oauth/refresh-tokens) rotates the presented
// refresh token for a fresh pair. The old token is dead afterwards.
func (c *Controller) RefreshTokens(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	refreshToken := refreshTokenFromRequest(ctx, &req)
	if refreshToken == "" {
		return service.ErrRefreshTokenInvalid
	}

	pair, err := c.tokens.Refresh(ctx.Request().Context(), refreshToken, userIdentity(ctx, req.Fingerprint))
	if err != nil {
		return err
	}

	ctx.SetCookie(c.refreshCookie(pair.RefreshToken))
	return ctx.JSON(http.StatusCreated, pair)
}

// LogoutTokens (POST /oauth/logout) deletes the presented refresh token
// and denylists the access token if one came along.
func (c *Controller) LogoutTokens(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	refreshToken := refreshTokenFromRequest(ctx, &req)
	if refreshToken == "" {
		return service.ErrRefreshTokenInvalid
	}

	if err := c.tokens.DeleteToken(ctx.Request().Context(), refreshToken, userIdentity(ctx, req.Fingerprint)); err != nil {
		return err
	}

	if access := bearerToken(ctx); access != "" {
		if err := c.tokens.InvalidateAccessToken(ctx.Request().Context(), access); err != nil {
			c.log.Warnw("failed to denylist access token on logout", "error", err)
		}
	}

	ctx.SetCookie(c.expiredRefreshCookie())
	return ctx.NoContent(http.StatusNoContent)
}

// LogoutAllTokens (POST /oauth/logout-all) deletes every other refresh
// token of the account; the presented one survives.
func (c *Controller) LogoutAllTokens(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	refreshToken := refreshTokenFromRequest(ctx, &req)
	if refreshToken == "" {
		return service.ErrRefreshTokenInvalid
	}

	if err := c.tokens.DeleteOtherTokens(ctx.Request().Context(), refreshToken, userIdentity(ctx, req.Fingerprint)); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}
