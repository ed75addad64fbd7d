package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	oapimiddleware "github.com/oapi-codegen/echo-middleware"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/controller"
	"github.com/draglane/backend/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
)

//go:embed openapi.yaml
var openapiSpec []byte

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	guard           *AuthGuard
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

func NewAPI(c *controller.Controller, guard *AuthGuard, sc *util.ServerConfig, l *zap.SugaredLogger, cleanupFuncs []func()) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)

	return &API{
		server:          e,
		controller:      c,
		guard:           guard,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		a.log.Fatalf("Failed to load OpenAPI specification: %v", err)
	}
	swagger.Servers = nil

	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a)))
	a.server.Use(a.guard.Middleware())
	a.server.Use(oapimiddleware.OapiRequestValidator(swagger))

	controller.RegisterRoutes(a.server, a.controller)

	a.ListenGracefulShutdown(ctx)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
