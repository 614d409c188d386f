// Package database owns the Postgres pool, per-user scoped connections for
// row-level security, schema migrations and the Redis client constructor.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/ekaya-journal/pkg/config"
)

// Pool defaults applied when a PoolSettings field is zero.
const (
	defaultMaxConns        int32 = 25
	defaultMaxConnLifetime       = time.Hour
	defaultMaxConnIdleTime       = 30 * time.Minute
)

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

// PoolSettings sizes the pool and controls how connections are recycled.
type PoolSettings struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SettingsFrom reads pool settings from the database configuration.
func SettingsFrom(cfg *config.DatabaseConfig) PoolSettings {
	return PoolSettings{
		MaxConns:        cfg.MaxConnections,
		MaxConnLifetime: cfg.MaxConnLifetime(),
		MaxConnIdleTime: cfg.MaxConnIdleTime(),
	}
}

// Open creates the pool for connURL and verifies it with a ping.
func Open(ctx context.Context, connURL string, settings PoolSettings) (*DB, error) {
	poolConfig, err := buildPoolConfig(connURL, settings)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func buildPoolConfig(connURL string, settings PoolSettings) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = orDefault(settings.MaxConns, defaultMaxConns)
	poolConfig.MaxConnLifetime = orDefault(settings.MaxConnLifetime, defaultMaxConnLifetime)
	poolConfig.MaxConnIdleTime = orDefault(settings.MaxConnIdleTime, defaultMaxConnIdleTime)
	return poolConfig, nil
}

func orDefault[T int32 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
