package database

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// UserScopeKey is the context key for storing the scoped database connection.
	UserScopeKey contextKey = "userScope"
)

// GetUserScope retrieves the scoped database connection from context.
// Returns nil and false if not present.
func GetUserScope(ctx context.Context) (*UserScope, bool) {
	scope, ok := ctx.Value(UserScopeKey).(*UserScope)
	return scope, ok && scope != nil
}

// SetUserScope stores the scoped database connection in context.
func SetUserScope(ctx context.Context, scope *UserScope) context.Context {
	return context.WithValue(ctx, UserScopeKey, scope)
}

// UserScopeProvider creates scoped contexts for database operations.
type UserScopeProvider struct {
	db *DB
}

// NewUserScopeProvider creates a UserScopeProvider for the given database.
func NewUserScopeProvider(db *DB) *UserScopeProvider {
	return &UserScopeProvider{db: db}
}

// WithUserScope returns a context with user scope set for the given user.
// The cleanup function must be called when the scope is no longer needed.
func (p *UserScopeProvider) WithUserScope(ctx context.Context, userID uuid.UUID) (context.Context, func(), error) {
	scope, err := p.db.WithUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return SetUserScope(ctx, scope), scope.Close, nil
}

// WithSystemScope returns a context with an unscoped connection.
// The cleanup function must be called when the scope is no longer needed.
func (p *UserScopeProvider) WithSystemScope(ctx context.Context) (context.Context, func(), error) {
	scope, err := p.db.WithoutUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	return SetUserScope(ctx, scope), scope.Close, nil
}
