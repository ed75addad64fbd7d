package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/draglane/backend/internal/models"
	"github.com/draglane/backend/internal/storage"
)

type UserRepository struct {
	db storage.DBTX
}

func NewUserRepository(db storage.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, first_name, last_name, avatar_color, created_at`

func scanUser(row *sql.Row) (*models.UserAccount, error) {
	var user models.UserAccount
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.AvatarColor,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.UserAccount) (*models.UserAccount, error) {
	query := `INSERT INTO user_accounts (id, email, username, first_name, last_name, avatar_color)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.AvatarColor,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) CreateSocialCredentials(ctx context.Context, creds models.SocialCredentials) error {
	query := `INSERT INTO user_social_credentials (id, user_account_id, provider_type, provider_user_id)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, creds.ID, creds.UserAccountID, creds.ProviderType, creds.ProviderUserID)
	if err != nil {
		return fmt.Errorf("failed to create social credentials: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.UserAccount, error) {
	query := `SELECT ` + userColumns + ` FROM user_accounts WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	query := `SELECT ` + userColumns + ` FROM user_accounts WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByProviderID(ctx context.Context, providerType, providerUserID string) (*models.UserAccount, error) {
	query := `SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar_color, u.created_at
		FROM user_accounts u
		JOIN user_social_credentials c ON c.user_account_id = u.id
		WHERE c.provider_type = $1 AND c.provider_user_id = $2`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, providerType, providerUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by provider id: %w", err)
	}
	return user, nil
}
