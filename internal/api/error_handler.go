package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/util"
)

type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// errorKinds maps service sentinels to the stable wire taxonomy. Raw
// provider or driver errors never reach the client.
var errorKinds = []struct {
	err     error
	status  int
	errType string
}{
	{service.ErrInvalidToken, http.StatusUnauthorized, "AUTH.INVALID_TOKEN"},
	{service.ErrUnknownProvider, http.StatusBadRequest, "AUTH.UNKNOWN_PROVIDER"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "AUTH.UNAUTHORIZED"},
	{service.ErrRefreshTokenInvalid, http.StatusUnauthorized, "TOKEN.REFRESH_TOKEN_IS_NOT_VALID"},
	{service.ErrAuthenticationFailed, http.StatusUnauthorized, "AUTH.AUTHENTICATION_FAILED"},
	{service.ErrForbidden, http.StatusForbidden, "AUTH.FORBIDDEN"},
	{service.ErrTokenExpired, http.StatusUnauthorized, "TOKEN.EXPIRED"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "TOKEN.REVOKED"},
	{service.ErrTokenInvalid, http.StatusUnauthorized, "TOKEN.INVALID"},
}

func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		for _, kind := range errorKinds {
			if errors.Is(err, kind.err) {
				writeJSON(c, log, kind.status, errorResponse{Type: kind.errType, Message: kind.err.Error()})
				return
			}
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			writeJSON(c, log, respErr.Status, errorResponse{Type: respErr.Type, Message: respErr.Msg})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			writeJSON(c, log, he.Code, errorResponse{Type: "HTTP", Message: fmt.Sprintf("%v", he.Message)})
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(c, log, http.StatusInternalServerError, errorResponse{Type: "INTERNAL", Message: "internal server error"})
	}
}

func writeJSON(c echo.Context, log *zap.SugaredLogger, status int, body errorResponse) {
	if err := c.JSON(status, body); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}
