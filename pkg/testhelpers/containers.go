package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/database"
)

const (
	// PostgresImage is the PostgreSQL image used for integration tests.
	PostgresImage = "postgres:16-alpine"
	// RedisImage is the Redis image used for cache integration tests.
	RedisImage = "redis:7-alpine"

	// AppRole is the unprivileged role the journal pool connects as.
	// Superusers bypass row-level security, so tests must not use one.
	AppRole         = "journal_app"
	appRolePassword = "journal_app_password"
)

// TestDB holds a shared test database container and a superuser pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "journal_test",
			"POSTGRES_USER":     "ekaya",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	connStr, err := connString(ctx, container, "ekaya", "test_password")
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

func connString(ctx context.Context, container testcontainers.Container, user, password string) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/journal_test?sslmode=disable",
		user, password, host, port.Port()), nil
}

// JournalDB holds the journal database with migrations applied, connected
// as the unprivileged AppRole so row-level security is enforced.
type JournalDB struct {
	DB      *database.DB
	ConnStr string
	// Admin is a superuser pool for fixtures and assertions that must see every row.
	Admin *pgxpool.Pool
}

var (
	sharedJournalDB     *JournalDB
	sharedJournalDBOnce sync.Once
	sharedJournalDBErr  error
)

// GetJournalDB returns a shared journal database for integration tests.
// The database has migrations applied and is reused across all tests.
func GetJournalDB(t *testing.T) *JournalDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	// Ensure test container is running first
	testDB := GetTestDB(t)

	sharedJournalDBOnce.Do(func() {
		sharedJournalDB, sharedJournalDBErr = setupJournalDB(testDB)
	})

	if sharedJournalDBErr != nil {
		t.Fatalf("Failed to setup journal database: %v", sharedJournalDBErr)
	}

	return sharedJournalDB
}

func setupJournalDB(testDB *TestDB) (*JournalDB, error) {
	ctx := context.Background()

	sqlDB, err := database.OpenSQL(testDB.ConnStr)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	grants := []string{
		fmt.Sprintf("DO $$ BEGIN CREATE ROLE %s LOGIN PASSWORD '%s'; EXCEPTION WHEN duplicate_object THEN NULL; END $$", AppRole, appRolePassword),
		fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", AppRole),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON users, journal_entries, entry_analyses TO %s", AppRole),
	}
	for _, stmt := range grants {
		if _, err := testDB.Pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to prepare app role: %w", err)
		}
	}

	connStr, err := connString(ctx, testDB.Container, AppRole, appRolePassword)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, connStr, database.PoolSettings{MaxConns: 5})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	return &JournalDB{
		DB:      db,
		ConnStr: connStr,
		Admin:   testDB.Pool,
	}, nil
}

// Truncate removes all rows from the journal tables.
func (j *JournalDB) Truncate(t *testing.T) {
	t.Helper()
	_, err := j.Admin.Exec(context.Background(),
		"TRUNCATE entry_analyses, journal_entries, users CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate journal tables: %v", err)
	}
}

var (
	sharedRedis     *redis.Client
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetTestRedis returns a client for a shared Redis container.
func GetTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = setupRedis()
	})

	if sharedRedisErr != nil {
		t.Fatalf("Failed to setup test redis: %v", sharedRedisErr)
	}

	return sharedRedis
}

func setupRedis() (*redis.Client, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
