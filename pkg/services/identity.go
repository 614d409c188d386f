package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/audit"
	"github.com/ekaya-inc/ekaya-journal/pkg/identity"
	"github.com/ekaya-inc/ekaya-journal/pkg/logging"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
	"github.com/ekaya-inc/ekaya-journal/pkg/repositories"
)

// IdentityService maps identity provider accounts to internal users.
type IdentityService interface {
	// ResolveUser returns the user linked to externalID, or
	// apperrors.ErrNotFound when there is no session or no such user.
	ResolveUser(ctx context.Context, externalID string) (*models.User, error)
	// EnsureUser creates the user for externalID on first sign-in and reports
	// whether this call created it. Repeated calls return the same row.
	EnsureUser(ctx context.Context, externalID string) (*models.User, bool, error)
}

// identityService implements IdentityService.
type identityService struct {
	scopes   ScopeProvider
	users    repositories.UserRepository
	profiles identity.ProfileFetcher
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewIdentityService creates a new identity service with dependencies.
func NewIdentityService(
	scopes ScopeProvider,
	users repositories.UserRepository,
	profiles identity.ProfileFetcher,
	logger *zap.Logger,
) IdentityService {
	return &identityService{
		scopes:   scopes,
		users:    users,
		profiles: profiles,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger.Named("identity"),
	}
}

// ResolveUser looks up the internal user. It has no side effects.
func (s *identityService) ResolveUser(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, apperrors.ErrNotFound
	}

	ctx, cleanup, err := s.scopes.WithSystemScope(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	user, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	return user, nil
}

// EnsureUser checks for an existing row first so repeat sign-ins never call
// the identity provider. Concurrent first sign-ins are settled by the unique
// external id: the loser re-reads the winner's row.
func (s *identityService) EnsureUser(ctx context.Context, externalID string) (*models.User, bool, error) {
	if externalID == "" {
		return nil, false, apperrors.ErrUnauthorized
	}

	ctx, cleanup, err := s.scopes.WithSystemScope(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	existing, err := s.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	profile, err := s.profiles.GetProfile(ctx, externalID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, false, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
		}
		return nil, false, fmt.Errorf("failed to fetch identity profile: %w", err)
	}
	if profile.ID != externalID {
		s.auditor.LogIdentityMismatch(ctx, externalID, profile.ID)
		return nil, false, fmt.Errorf("%w: identity profile does not match session", apperrors.ErrUnauthorized)
	}

	user := &models.User{
		ExternalID: externalID,
		Email:      profile.PrimaryEmail(),
		Name:       models.DisplayName(profile.FirstName, profile.LastName),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		s.logger.Debug("User created concurrently, re-reading",
			zap.String("external_id", externalID))
		winner, err := s.users.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to re-read user: %w", err)
		}
		return winner, false, nil
	}

	s.logger.Info("Created user",
		zap.String("user_id", user.ID.String()),
		zap.String("external_id", externalID),
		zap.String("email", logging.RedactEmail(user.Email)))
	s.auditor.LogUserProvisioned(ctx, user.ID, externalID)

	return user, true, nil
}

// Ensure identityService implements IdentityService at compile time.
var _ IdentityService = (*identityService)(nil)
