package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/util"
)

type Controller struct {
	auth     *service.AuthService
	sessions *service.SessionService
	tokens   *service.TokenService
	tokenCfg *util.TokenConfig
	log      *zap.SugaredLogger
}

func NewController(
	auth *service.AuthService,
	sessions *service.SessionService,
	tokens *service.TokenService,
	tokenCfg *util.TokenConfig,
	log *zap.SugaredLogger,
) *Controller {
	return &Controller{
		auth:     auth,
		sessions: sessions,
		tokens:   tokens,
		tokenCfg: tokenCfg,
		log:      log,
	}
}

// PublicRoutes lists the endpoints the auth guard lets through without a
// principal. The JWT logout paths authenticate with the refresh token
// itself.
func PublicRoutes() []string {
	return []string{
		"GET /ping",
		"POST /auth/login/google",
		"POST /oauth/login/google",
		"POST /oauth/refresh-tokens",
		"POST /oauth/logout",
		"POST /oauth/logout-all",
	}
}

func RegisterRoutes(e *echo.Echo, c *Controller) {
	e.GET("/ping", c.CheckServer)

	auth := e.Group("/auth")
	auth.POST("/login/google", c.LoginGoogle)
	auth.POST("/session", c.GetSessionUser)
	auth.POST("/logout", c.Logout)
	auth.POST("/logout-all", c.LogoutAll)

	oauth := e.Group("/oauth")
	oauth.POST("/login/google", c.LoginGoogleTokens)
	oauth.POST("/refresh-tokens", c.RefreshTokens)
	oauth.POST("/logout", c.LogoutTokens)
	oauth.POST("/logout-all", c.LogoutAllTokens)
}

// (GET /ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

func userIdentity(ctx echo.Context, fingerprint string) models.UserIdentity {
	return models.UserIdentity{
		UserAgent:   ctx.Request().UserAgent(),
		IPAddress:   ctx.RealIP(),
		Fingerprint: fingerprint,
	}
}

func cookieValue(ctx echo.Context, name string) string {
	cookie, err := ctx.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	return strings.TrimPrefix(header, "Bearer ")
}

func providerOrDefault(provider string) string {
	if provider == "" {
		return models.ProviderGoogle
	}
	return provider
}
