package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/storage"
)

// AuthGuard resolves a principal from the session cookie or the bearer
// header, in that order. Public routes are declared at startup.
type AuthGuard struct {
	sessions *service.SessionService
	tokens   *service.TokenService
	public   map[string]struct{}
	log      *zap.SugaredLogger
}

func NewAuthGuard(sessions *service.SessionService, tokens *service.TokenService, log *zap.SugaredLogger, publicRoutes []string) *AuthGuard {
	public := make(map[string]struct{}, len(publicRoutes))
	for _, route := range publicRoutes {
		public[route] = struct{}{}
	}

	return &AuthGuard{
		sessions: sessions,
		tokens:   tokens,
		public:   public,
		log:      log,
	}
}

// Middleware evaluates the two credential channels in fixed precedence:
// an established session is cheaper to trust than a bearer token. An
// absent or unknown cookie falls through to the bearer channel; a valid
// session wins even when the bearer is garbage.
func (g *AuthGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := g.public[c.Request().Method+" "+c.Path()]; ok {
				return next(c)
			}

			if userID, ok := g.userIDFromSession(c); ok {
				c.Set(models.MwUserIDKey, userID)
				c.Set(models.MwAuthChannelKey, models.AuthChannelSession)
				g.log.Debugw("request authenticated", "channel", models.AuthChannelSession, "userID", userID)
				return next(c)
			}

			if userID, ok := g.userIDFromBearer(c); ok {
				c.Set(models.MwUserIDKey, userID)
				c.Set(models.MwAuthChannelKey, models.AuthChannelToken)
				g.log.Debugw("request authenticated", "channel", models.AuthChannelToken, "userID", userID)
				return next(c)
			}

			return service.ErrUnauthorized
		}
	}
}

func (g *AuthGuard) userIDFromSession(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(models.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	session, err := g.sessions.GetSessionByID(c.Request().Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			g.log.Errorw("session lookup failed", "error", err)
		}
		return "", false
	}

	return session.UserAccountID, true
}

func (g *AuthGuard) userIDFromBearer(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")

	claims, err := g.tokens.VerifyAccessToken(c.Request().Context(), token)
	if err != nil {
		// Expired or revoked bearers are an attack signal worth keeping
		// in the audit trail, not just a cache miss.
		g.log.Infow("bearer token rejected", "error", err, "uri", c.Request().RequestURI)
		return "", false
	}

	return claims.UserID, true
}
