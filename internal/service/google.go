package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/util"
)

// GoogleAuthService resolves a Google OAuth access token to an external
// identity via the provider's userinfo endpoint. The OIDC provider object
// is built once at startup and cached; per-call credentials never are.
type GoogleAuthService struct {
	provider *oidc.Provider
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewGoogleAuthService(ctx context.Context, cfg *util.GoogleConfig, log *zap.SugaredLogger) (*GoogleAuthService, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("init google oidc provider: %w", err)
	}

	return &GoogleAuthService{
		provider: provider,
		timeout:  cfg.Timeout,
		log:      log,
	}, nil
}

// Authenticate exchanges the access token at the userinfo endpoint. Any
// transport failure, malformed response or provider-side rejection
// collapses to ErrInvalidToken so provider internals never leak to the
// client.
func (s *GoogleAuthService) Authenticate(ctx context.Context, token string) (*models.ExternalIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userInfo, err := s.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if err != nil {
		s.log.Debugw("google userinfo exchange failed", "error", err)
		return nil, ErrInvalidToken
	}

	var claims struct {
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := userInfo.Claims(&claims); err != nil {
		s.log.Debugw("google userinfo claims parse failed", "error", err)
		return nil, ErrInvalidToken
	}

	if userInfo.Subject == "" || userInfo.Email == "" {
		return nil, ErrInvalidToken
	}

	return &models.ExternalIdentity{
		ProviderType:   models.ProviderGoogle,
		ProviderUserID: userInfo.Subject,
		Email:          userInfo.Email,
		FirstName:      claims.GivenName,
		LastName:       claims.FamilyName,
	}, nil
}
