package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserSetting is the session setting read by the row-level security policies.
const UserSetting = "app.current_user_id"

// UserScope wraps a connection with user context and ensures cleanup.
// When UserID is set the connection has app.current_user_id set, so RLS
// only exposes that user's entries and analyses.
type UserScope struct {
	Conn   *pgxpool.Conn
	UserID uuid.UUID
}

// Close resets user context and releases connection to pool.
// This MUST be called to prevent user context from leaking to the next request.
func (s *UserScope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET "+UserSetting)
	s.Conn.Release()
	s.Conn = nil
}

// WithUser acquires a connection and sets the user context for RLS.
// The returned UserScope MUST be closed with defer scope.Close().
func (db *DB) WithUser(ctx context.Context, userID uuid.UUID) (*UserScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('"+UserSetting+"', $1, false)", userID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &UserScope{Conn: conn, UserID: userID}, nil
}

// WithoutUser acquires a connection without user context.
// Use this for identity resolution, which runs before the acting user is known.
// The returned UserScope MUST be closed with defer scope.Close().
func (db *DB) WithoutUser(ctx context.Context) (*UserScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &UserScope{Conn: conn}, nil
}
