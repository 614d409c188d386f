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

// JournalEntryRepository defines the interface for journal entry data access.
// Every method is keyed by the owning user id as well as the entry id.
type JournalEntryRepository interface {
	// ListByUser returns the user's entries with their analyses, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.JournalEntry, error)
	// GetByID returns apperrors.ErrNotFound when the entry does not exist or
	// belongs to someone else.
	GetByID(ctx context.Context, userID, entryID uuid.UUID) (*models.JournalEntry, error)
	// Delete returns apperrors.ErrNotFound when no row matched (userID, entryID).
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	Create(ctx context.Context, entry *models.JournalEntry) error
}

// journalEntryRepository implements JournalEntryRepository using PostgreSQL.
type journalEntryRepository struct{}

// NewJournalEntryRepository creates a new journal entry repository.
func NewJournalEntryRepository() JournalEntryRepository {
	return &journalEntryRepository{}
}

const entrySelect = `
	SELECT e.id, e.user_id, e.content, e.created_at, e.updated_at,
	       a.id, a.entry_id, a.user_id, a.mood, a.summary, a.subject, a.color,
	       a.negative, a.sentiment_score, a.created_at, a.updated_at
	FROM journal_entries e
	LEFT JOIN entry_analyses a ON a.entry_id = e.id AND a.user_id = e.user_id`

// ListByUser retrieves all entries for a user, newest first.
func (r *journalEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.JournalEntry, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := entrySelect + `
	WHERE e.user_id = $1
	ORDER BY e.created_at DESC, e.id DESC`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// GetByID retrieves one entry scoped to its owner.
func (r *journalEntryRepository) GetByID(ctx context.Context, userID, entryID uuid.UUID) (*models.JournalEntry, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := entrySelect + `
	WHERE e.user_id = $1 AND e.id = $2`

	entry, err := scanEntry(scope.Conn.QueryRow(ctx, query, userID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// Delete removes one entry scoped to its owner. Its analysis goes with it
// through the composite foreign key.
func (r *journalEntryRepository) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	query := `DELETE FROM journal_entries WHERE user_id = $1 AND id = $2`

	result, err := scope.Conn.Exec(ctx, query, userID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Create inserts a new entry.
func (r *journalEntryRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return fmt.Errorf("no user scope in context")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO journal_entries (id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := scope.Conn.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Content,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return nil
}

// scanEntry scans one row of entrySelect. Analysis columns are NULL when
// the entry has not been analyzed yet.
func scanEntry(row pgx.Row) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	var (
		analysisID, analysisEntryID, analysisUserID *uuid.UUID
		mood, summary, subject, color               *string
		negative                                    *bool
		score                                       *float64
		analysisCreated, analysisUpdated            *time.Time
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Content,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&analysisID,
		&analysisEntryID,
		&analysisUserID,
		&mood,
		&summary,
		&subject,
		&color,
		&negative,
		&score,
		&analysisCreated,
		&analysisUpdated,
	)
	if err != nil {
		return nil, err
	}

	if analysisID != nil {
		entry.Analysis = &models.EntryAnalysis{
			ID:             *analysisID,
			EntryID:        deref(analysisEntryID),
			UserID:         deref(analysisUserID),
			Mood:           deref(mood),
			Summary:        deref(summary),
			Subject:        deref(subject),
			Color:          deref(color),
			Negative:       deref(negative),
			SentimentScore: deref(score),
			CreatedAt:      deref(analysisCreated),
			UpdatedAt:      deref(analysisUpdated),
		}
	}

	return &entry, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Ensure journalEntryRepository implements JournalEntryRepository at compile time.
var _ JournalEntryRepository = (*journalEntryRepository)(nil)
