package services

import (
	"context"

	"github.com/google/uuid"
)

// ScopeProvider acquires scoped database connections for repositories.
// Each returned cleanup function MUST be called.
type ScopeProvider interface {
	// WithUserScope returns a context whose connection only exposes userID's rows.
	WithUserScope(ctx context.Context, userID uuid.UUID) (context.Context, func(), error)
	// WithSystemScope returns a context with an unscoped connection, used
	// before the acting user is known.
	WithSystemScope(ctx context.Context) (context.Context, func(), error)
}
