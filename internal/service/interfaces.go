package service

import (
	"context"

	"github.com/draglane/backend/internal/models"
)

// IdentityResolver exchanges a third-party OAuth access token for a
// normalized external identity. Implementations must collapse every
// failure into ErrInvalidToken.
type IdentityResolver interface {
	Authenticate(ctx context.Context, token string) (*models.ExternalIdentity, error)
}

// AccountDirectory finds or creates local accounts for external
// identities.
type AccountDirectory interface {
	GetByID(ctx context.Context, id string) (*models.UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	GetByProviderID(ctx context.Context, providerType, providerUserID string) (*models.UserAccount, error)
	CreateWithSocialCredentials(ctx context.Context, identity models.ExternalIdentity) (*models.UserAccount, error)
}
