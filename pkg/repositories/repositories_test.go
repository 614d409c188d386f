//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-journal/pkg/database"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
	"github.com/ekaya-inc/ekaya-journal/pkg/testhelpers"
)

// repoTestContext holds test dependencies for repository tests.
type repoTestContext struct {
	t         *testing.T
	journalDB *testhelpers.JournalDB
	users     UserRepository
	entries   JournalEntryRepository
	analyses  EntryAnalysisRepository
}

// setupRepoTest initializes the test context with the shared testcontainer
// and empties the journal tables.
func setupRepoTest(t *testing.T) *repoTestContext {
	journalDB := testhelpers.GetJournalDB(t)
	journalDB.Truncate(t)
	return &repoTestContext{
		t:         t,
		journalDB: journalDB,
		users:     NewUserRepository(),
		entries:   NewJournalEntryRepository(),
		analyses:  NewEntryAnalysisRepository(),
	}
}

// systemContext returns a context with an unscoped connection.
func (tc *repoTestContext) systemContext() (context.Context, func()) {
	tc.t.Helper()
	scope, err := tc.journalDB.DB.WithoutUser(context.Background())
	if err != nil {
		tc.t.Fatalf("failed to create system scope: %v", err)
	}
	return database.SetUserScope(context.Background(), scope), scope.Close
}

// userContext returns a context scoped to userID for RLS.
func (tc *repoTestContext) userContext(userID uuid.UUID) (context.Context, func()) {
	tc.t.Helper()
	scope, err := tc.journalDB.DB.WithUser(context.Background(), userID)
	if err != nil {
		tc.t.Fatalf("failed to create user scope: %v", err)
	}
	return database.SetUserScope(context.Background(), scope), scope.Close
}

// createUser inserts a user through the repository.
func (tc *repoTestContext) createUser(externalID string) *models.User {
	tc.t.Helper()
	ctx, cleanup := tc.systemContext()
	defer cleanup()

	user := &models.User{ExternalID: externalID, Email: externalID + "@example.com", Name: "Test User"}
	created, err := tc.users.Create(ctx, user)
	if err != nil || !created {
		tc.t.Fatalf("failed to create test user: created=%v err=%v", created, err)
	}
	return user
}

// insertEntry writes an entry with an explicit timestamp through the admin pool.
func (tc *repoTestContext) insertEntry(userID uuid.UUID, content string, createdAt time.Time) uuid.UUID {
	tc.t.Helper()
	var id uuid.UUID
	err := tc.journalDB.Admin.QueryRow(context.Background(), `
		INSERT INTO journal_entries (user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $3) RETURNING id`, userID, content, createdAt).Scan(&id)
	if err != nil {
		tc.t.Fatalf("failed to insert entry: %v", err)
	}
	return id
}

// insertAnalysis writes an analysis the way the external analysis process would.
func (tc *repoTestContext) insertAnalysis(userID, entryID uuid.UUID, mood, color string, score float64) {
	tc.t.Helper()
	_, err := tc.journalDB.Admin.Exec(context.Background(), `
		INSERT INTO entry_analyses (entry_id, user_id, mood, summary, subject, color, negative, sentiment_score)
		VALUES ($1, $2, $3, 'summary', 'subject', $4, $5, $6)`,
		entryID, userID, mood, color, score < 0, score)
	if err != nil {
		tc.t.Fatalf("failed to insert analysis: %v", err)
	}
}

func (tc *repoTestContext) countEntries() int {
	tc.t.Helper()
	var count int
	if err := tc.journalDB.Admin.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM journal_entries").Scan(&count); err != nil {
		tc.t.Fatalf("failed to count entries: %v", err)
	}
	return count
}
