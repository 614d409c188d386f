package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-journal/pkg/database"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
)

// EntryAnalysisRepository defines read access to entry analyses.
// Analyses are written by the external analysis process.
type EntryAnalysisRepository interface {
	// ListSentimentByUser returns the sentiment projection of every analysis
	// owned by userID, in no particular order.
	ListSentimentByUser(ctx context.Context, userID uuid.UUID) ([]*models.SentimentPoint, error)
}

// entryAnalysisRepository implements EntryAnalysisRepository using PostgreSQL.
type entryAnalysisRepository struct{}

// NewEntryAnalysisRepository creates a new entry analysis repository.
func NewEntryAnalysisRepository() EntryAnalysisRepository {
	return &entryAnalysisRepository{}
}

// ListSentimentByUser projects {sentiment_score, color, mood} for a user.
func (r *entryAnalysisRepository) ListSentimentByUser(ctx context.Context, userID uuid.UUID) ([]*models.SentimentPoint, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}

	query := `
		SELECT user_id, sentiment_score, color, mood
		FROM entry_analyses
		WHERE user_id = $1`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	points := make([]*models.SentimentPoint, 0)
	for rows.Next() {
		var p models.SentimentPoint
		if err := rows.Scan(&p.UserID, &p.SentimentScore, &p.Color, &p.Mood); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return points, nil
}

// Ensure entryAnalysisRepository implements EntryAnalysisRepository at compile time.
var _ EntryAnalysisRepository = (*entryAnalysisRepository)(nil)
