package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/draglane/backend/internal/api"
	"github.com/draglane/backend/internal/controller"
	"github.com/draglane/backend/internal/migrations"
	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/service"
	"github.com/draglane/backend/internal/storage/postgres"
	"github.com/draglane/backend/internal/storage/redis"
	"github.com/draglane/backend/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	storage := postgres.NewStorage(db)
	denylist := redis.NewDenylistStorage(redisClient)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	googleService, err := service.NewGoogleAuthService(ctx, util.NewGoogleConfig(), logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	resolvers := map[string]service.IdentityResolver{
		models.ProviderGoogle: googleService,
	}

	tokenConfig := util.NewTokenConfig()
	credentialConfig := util.NewCredentialConfig()

	userService := service.NewUserService(storage)
	sessionService := service.NewSessionService(storage, credentialConfig, logger)
	tokenService := service.NewTokenService(tokenConfig, credentialConfig, storage, denylist, logger)
	authService := service.NewAuthService(userService, logger, resolvers)

	guard := api.NewAuthGuard(sessionService, tokenService, logger, controller.PublicRoutes())
	ctrl := controller.NewController(authService, sessionService, tokenService, tokenConfig, logger)

	apiServer := api.NewAPI(ctrl, guard, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
