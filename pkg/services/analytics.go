package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/audit"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
	"github.com/ekaya-inc/ekaya-journal/pkg/repositories"
)

// AnalyticsService reads the sentiment projection of a user's analyses.
type AnalyticsService interface {
	// ListAnalytics returns one point per analyzed entry, unordered and unaggregated.
	ListAnalytics(ctx context.Context, user *models.User) ([]*models.SentimentPoint, error)
}

// analyticsService implements AnalyticsService.
type analyticsService struct {
	scopes   ScopeProvider
	analyses repositories.EntryAnalysisRepository
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewAnalyticsService creates a new analytics service with dependencies.
func NewAnalyticsService(scopes ScopeProvider, analyses repositories.EntryAnalysisRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		scopes:   scopes,
		analyses: analyses,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger.Named("analytics"),
	}
}

// ListAnalytics drops any row not owned by user even if lower layers returned it.
func (s *analyticsService) ListAnalytics(ctx context.Context, user *models.User) ([]*models.SentimentPoint, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	ctx, cleanup, err := s.scopes.WithUserScope(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	points, err := s.analyses.ListSentimentByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}

	kept, dropped := models.FilterOwned(points, user.ID)
	if dropped > 0 {
		s.auditor.LogOwnershipViolation(ctx, user.ID, audit.OwnershipDetails{
			Resource: "entry_analyses",
			Dropped:  dropped,
		})
	}

	return kept, nil
}

// Ensure analyticsService implements AnalyticsService at compile time.
var _ AnalyticsService = (*analyticsService)(nil)
