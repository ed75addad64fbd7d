package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

// AuthService orchestrates sign-in: resolve the external identity, then
// find or create the local account.
type AuthService struct {
	resolvers map[string]IdentityResolver
	users     AccountDirectory
	log       *zap.SugaredLogger
}

func NewAuthService(users AccountDirectory, log *zap.SugaredLogger, resolvers map[string]IdentityResolver) *AuthService {
	return &AuthService{
		resolvers: resolvers,
		users:     users,
		log:       log,
	}
}

// SignIn exchanges the provider token for an identity and returns the
// matching account, creating it on first sign-in.
func (as *AuthService) SignIn(ctx context.Context, provider, token string) (*models.UserAccount, error) {
	resolver, ok := as.resolvers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	identity, err := resolver.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := as.users.GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	created, err := as.users.CreateWithSocialCredentials(ctx, *identity)
	if err != nil {
		return nil, err
	}
	as.log.Infow("created account from social sign-in",
		"userID", created.ID, "provider", identity.ProviderType)

	return created, nil
}

// GetMe returns the profile of an already-authenticated principal.
func (as *AuthService) GetMe(ctx context.Context, userAccountID string) (*models.UserAccount, error) {
	return as.users.GetByID(ctx, userAccountID)
}
