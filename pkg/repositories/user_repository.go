package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/database"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// Create inserts the user unless a row with the same external id exists.
	// It reports whether this call created the row; on false the user is left untouched.
	Create(ctx context.Context, user *models.User) (bool, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct{}

// NewUserRepository creates a new user repository.
func NewUserRepository() UserRepository {
	return &userRepository{}
}

const userColumns = `id, external_id, email, name, created_at, updated_at`

// GetByExternalID retrieves the user linked to an identity provider account.
func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by internal id.
func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(scope.Conn.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Create inserts a user, relying on the external_id unique constraint for idempotence.
func (r *userRepository) Create(ctx context.Context, user *models.User) (bool, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return false, fmt.Errorf("no user scope in context")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()

	query := `
		INSERT INTO users (id, external_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		user.ID,
		user.ExternalID,
		user.Email,
		user.Name,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	return true, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.ExternalID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
