package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
	"github.com/draglane/backend/internal/util"
)

// TokenClaims is the shared payload of access and refresh tokens. The jti
// keeps two tokens minted in the same tick from being byte-identical;
// only exp (and the signature) tells the pair apart.
type TokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService owns JWT issuance, verification and refresh-token
// rotation, including the wipe-on-exceed cap and the access-token
// denylist.
type TokenService struct {
	jwtSecretKey []byte
	issuer       string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	maxTokens    int
	storage      storage.Storage
	denylist     storage.DenylistStorage
	log          *zap.SugaredLogger
}

func NewTokenService(
	cfg *util.TokenConfig,
	credCfg *util.CredentialConfig,
	s storage.Storage,
	denylist storage.DenylistStorage,
	log *zap.SugaredLogger,
) *TokenService {
	return &TokenService{
		jwtSecretKey: cfg.JwtSecretKey,
		issuer:       cfg.Issuer,
		accessTTL:    cfg.AccessTTL,
		refreshTTL:   cfg.RefreshTTL,
		maxTokens:    credCfg.MaxRefreshTokens,
		storage:      s,
		denylist:     denylist,
		log:          log,
	}
}

func (ts *TokenService) createToken(userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := &TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}

	return signedToken, nil
}

// IssueTokens mints an access/refresh pair and persists the refresh side,
// keyed by the token string itself. The freshly signed refresh token is
// verified to read back its exp before the row is written; eviction runs
// in the same transaction as the insert.
func (ts *TokenService) IssueTokens(ctx context.Context, userAccountID string, identity models.UserIdentity) (*models.TokenPairResponse, error) {
	now := time.Now()

	accessToken, err := ts.createToken(userAccountID, now, ts.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	refreshToken, err := ts.createToken(userAccountID, now, ts.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	claims, err := ts.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("verify fresh refresh token: %w", err)
	}

	row := models.RefreshToken{
		ID:            uuid.NewString(),
		Token:         refreshToken,
		UserAccountID: userAccountID,
		UserAgent:     identity.UserAgent,
		IP:            identity.IPAddress,
		Fingerprint:   identity.Fingerprint,
		ExpiresAt:     claims.ExpiresAt.Unix(),
	}

	if err := ts.storage.CreateRefreshTokenTx(ctx, row, ts.maxTokens); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &models.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyToken is a pure signature+claims check; the issuer must match the
// configured one.
func (ts *TokenService) VerifyToken(token string) (*TokenClaims, error) {
	parsedToken, err := jwt.ParseWithClaims(
		token,
		&TokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return ts.jwtSecretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsedToken.Claims.(*TokenClaims)
	if !ok || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// VerifyAccessToken additionally consults the denylist, so a logged-out
// access token is rejected before its exp.
func (ts *TokenService) VerifyAccessToken(ctx context.Context, token string) (*TokenClaims, error) {
	isInvalidated, err := ts.denylist.IsTokenInvalidated(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check if token is invalidated: %w", err)
	}
	if isInvalidated {
		return nil, ErrTokenRevoked
	}

	return ts.VerifyToken(token)
}

// Refresh rotates the presented refresh token: verify, look up, then
// delete+reissue in one transaction. The old token becomes permanently
// unusable the instant the new pair exists; a concurrent retry with the
// same stale token gets ErrRefreshTokenInvalid.
func (ts *TokenService) Refresh(ctx context.Context, refreshToken string, identity models.UserIdentity) (*models.TokenPairResponse, error) {
	if _, err := ts.VerifyToken(refreshToken); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshTokenInvalid, err)
	}

	current, err := ts.storage.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	now := time.Now()
	accessToken, err := ts.createToken(current.UserAccountID, now, ts.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	newRefreshToken, err := ts.createToken(current.UserAccountID, now, ts.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newRow := models.RefreshToken{
		ID:            uuid.NewString(),
		Token:         newRefreshToken,
		UserAccountID: current.UserAccountID,
		UserAgent:     identity.UserAgent,
		IP:            identity.IPAddress,
		Fingerprint:   identity.Fingerprint,
		ExpiresAt:     now.Add(ts.refreshTTL).Unix(),
	}

	if err := ts.storage.RotateRefreshTokenTx(ctx, refreshToken, newRow, ts.maxTokens); err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return &models.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// getValidRefreshToken resolves the stored row and compares its recorded
// fingerprint against the caller's. A mismatch is treated as a stolen
// token: the row is deleted and authentication fails, never silently.
func (ts *TokenService) getValidRefreshToken(ctx context.Context, refreshToken string, identity models.UserIdentity) (*models.RefreshToken, error) {
	current, err := ts.storage.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(current.Fingerprint), []byte(identity.Fingerprint)) != 1 {
		ts.log.Warnw("refresh token fingerprint mismatch",
			"userID", current.UserAccountID, "ip", identity.IPAddress)
		if err := ts.storage.DeleteRefreshToken(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("delete mismatched refresh token: %w", err)
		}
		return nil, ErrAuthenticationFailed
	}

	return current, nil
}

// DeleteToken removes the presented refresh token (logout).
func (ts *TokenService) DeleteToken(ctx context.Context, refreshToken string, identity models.UserIdentity) error {
	if _, err := ts.VerifyToken(refreshToken); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshTokenInvalid, err)
	}

	if _, err := ts.getValidRefreshToken(ctx, refreshToken, identity); err != nil {
		return err
	}

	return ts.storage.DeleteRefreshToken(ctx, refreshToken)
}

// DeleteOtherTokens removes every refresh token of the owner except the
// presented one (logout everywhere else).
func (ts *TokenService) DeleteOtherTokens(ctx context.Context, refreshToken string, identity models.UserIdentity) error {
	if _, err := ts.VerifyToken(refreshToken); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshTokenInvalid, err)
	}

	current, err := ts.getValidRefreshToken(ctx, refreshToken, identity)
	if err != nil {
		return err
	}

	return ts.storage.DeleteOtherRefreshTokens(ctx, current.UserAccountID, refreshToken)
}

// InvalidateAccessToken denylists the token for its remaining lifetime.
func (ts *TokenService) InvalidateAccessToken(ctx context.Context, accessToken string) error {
	claims, err := ts.getClaimsFromToken(accessToken)
	if err != nil {
		return fmt.Errorf("get claims from token: %w", err)
	}

	expiration := time.Until(claims.ExpiresAt.Time)

	if err := ts.denylist.InvalidateToken(ctx, accessToken, expiration); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (ts *TokenService) getClaimsFromToken(token string) (*TokenClaims, error) {
	parsedToken, _, err := new(jwt.Parser).ParseUnverified(token, &TokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	claims, ok := parsedToken.Claims.(*TokenClaims)
	if !ok || claims.ExpiresAt == nil {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
