package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

// avatarColors is the cosmetic palette an account is assigned from, once,
// at creation.
var avatarColors = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7", "#3F51B5",
	"#2196F3", "#00BCD4", "#009688", "#4CAF50", "#FF9800",
}

// UserService is the account directory: it finds or creates local
// accounts for external identities. Profile mutation lives elsewhere.
type UserService struct {
	storage storage.Storage
}

func NewUserService(s storage.Storage) *UserService {
	return &UserService{storage: s}
}

func (us *UserService) GetByID(ctx context.Context, id string) (*models.UserAccount, error) {
	return us.storage.GetUserByID(ctx, id)
}

func (us *UserService) GetByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	return us.storage.GetUserByEmail(ctx, email)
}

func (us *UserService) GetByProviderID(ctx context.Context, providerType, providerUserID string) (*models.UserAccount, error) {
	return us.storage.GetUserByProviderID(ctx, providerType, providerUserID)
}

// CreateWithSocialCredentials inserts the account and its social
// credentials in one transaction. Username derives from the email.
func (us *UserService) CreateWithSocialCredentials(ctx context.Context, identity models.ExternalIdentity) (*models.UserAccount, error) {
	user := models.UserAccount{
		ID:          uuid.NewString(),
		Email:       identity.Email,
		Username:    identity.Email,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		AvatarColor: generateAvatarColor(),
	}
	creds := models.SocialCredentials{
		ID:             uuid.NewString(),
		ProviderType:   identity.ProviderType,
		ProviderUserID: identity.ProviderUserID,
	}

	created, err := us.storage.CreateUserWithCredentialsTx(ctx, user, creds)
	if err != nil {
		return nil, fmt.Errorf("create user with social credentials: %w", err)
	}
	return created, nil
}

func generateAvatarColor() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(avatarColors))))
	if err != nil {
		return avatarColors[0]
	}
	return avatarColors[n.Int64()]
}
