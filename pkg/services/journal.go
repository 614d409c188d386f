package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/audit"
	"github.com/ekaya-inc/ekaya-journal/pkg/cache"
	"github.com/ekaya-inc/ekaya-journal/pkg/logging"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
	"github.com/ekaya-inc/ekaya-journal/pkg/repositories"
)

// JournalService defines entry operations. Every operation acts on behalf
// of the given user and fails with apperrors.ErrUnauthorized when it is nil.
type JournalService interface {
	// ListEntries returns the user's entries with analyses, newest first.
	ListEntries(ctx context.Context, user *models.User) ([]*models.JournalEntry, error)
	// GetEntry returns apperrors.ErrNotFound for missing and foreign entries alike.
	GetEntry(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.JournalEntry, error)
	// DeleteEntry removes one entry. Any failure to delete, including a
	// missing or foreign entry, is reported as apperrors.ErrDeleteFailed.
	DeleteEntry(ctx context.Context, user *models.User, entryID uuid.UUID) error
	// CreateEntry stores content as plain text.
	CreateEntry(ctx context.Context, user *models.User, content string) (*models.JournalEntry, error)
}

// journalService implements JournalService.
type journalService struct {
	scopes     ScopeProvider
	users      repositories.UserRepository
	entries    repositories.JournalEntryRepository
	lists      cache.EntryListInvalidator
	policy     *bluemonday.Policy
	maxLength  int
	auditor    *audit.SecurityAuditor
	logger     *zap.Logger
}

// NewJournalService creates a new journal service with dependencies.
// maxContentLength bounds entry content in characters.
func NewJournalService(
	scopes ScopeProvider,
	users repositories.UserRepository,
	entries repositories.JournalEntryRepository,
	lists cache.EntryListInvalidator,
	maxContentLength int,
	logger *zap.Logger,
) JournalService {
	return &journalService{
		scopes:     scopes,
		users:      users,
		entries:    entries,
		lists:      lists,
		policy:     bluemonday.StrictPolicy(),
		maxLength:  maxContentLength,
		auditor:    audit.NewSecurityAuditor(logger),
		logger:     logger.Named("journal"),
	}
}

func requireUser(user *models.User) error {
	if user == nil || user.ID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// ListEntries always reads the store. Changes made through this service
// are handed to the presentation layer as invalidations, never cached here.
func (s *journalService) ListEntries(ctx context.Context, user *models.User) ([]*models.JournalEntry, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	ctx, cleanup, err := s.scopes.WithUserScope(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	entries, err := s.entries.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return s.filterOwned(ctx, user, entries), nil
}

// GetEntry fetches one entry scoped to (user, entryID).
func (s *journalService) GetEntry(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.JournalEntry, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	ctx, cleanup, err := s.scopes.WithUserScope(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	entry, err := s.entries.GetByID(ctx, user.ID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	if !models.OwnedBy(entry, user.ID) {
		s.auditor.LogOwnershipViolation(ctx, user.ID, audit.OwnershipDetails{
			Resource: "journal_entries",
			RecordID: entryID.String(),
			Dropped:  1,
		})
		return nil, apperrors.ErrNotFound
	}

	return entry, nil
}

// DeleteEntry deletes with the owner in the predicate, so there is no
// separate ownership check to race against. The underlying error is logged
// and the caller only sees the generalized kind.
func (s *journalService) DeleteEntry(ctx context.Context, user *models.User, entryID uuid.UUID) error {
	if err := requireUser(user); err != nil {
		return err
	}

	ctx, cleanup, err := s.scopes.WithUserScope(ctx, user.ID)
	if err != nil {
		s.logDeleteFailure(user, entryID, err)
		return apperrors.ErrDeleteFailed
	}
	defer cleanup()

	if _, err := s.users.GetByID(ctx, user.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Delete requested by a user that no longer exists",
				zap.String("user_id", user.ID.String()))
			return fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, apperrors.ErrNotFound)
		}
		s.logDeleteFailure(user, entryID, err)
		return apperrors.ErrDeleteFailed
	}

	if err := s.entries.Delete(ctx, user.ID, entryID); err != nil {
		s.logDeleteFailure(user, entryID, err)
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: %w", apperrors.ErrDeleteFailed, apperrors.ErrNotFound)
		}
		return apperrors.ErrDeleteFailed
	}

	s.invalidate(ctx, user.ID)

	s.logger.Info("Deleted entry",
		zap.String("user_id", user.ID.String()),
		zap.String("entry_id", entryID.String()))

	return nil
}

// CreateEntry strips markup, decodes entities and enforces the length limit.
func (s *journalService) CreateEntry(ctx context.Context, user *models.User, content string) (*models.JournalEntry, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(content)))
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrInvalidInput)
	}
	if s.maxLength > 0 && utf8.RuneCountInString(content) > s.maxLength {
		return nil, fmt.Errorf("%w: content exceeds %d characters", apperrors.ErrInvalidInput, s.maxLength)
	}

	ctx, cleanup, err := s.scopes.WithUserScope(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer cleanup()

	entry := &models.JournalEntry{
		UserID:  user.ID,
		Content: content,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	s.invalidate(ctx, user.ID)

	return entry, nil
}

func (s *journalService) filterOwned(ctx context.Context, user *models.User, entries []*models.JournalEntry) []*models.JournalEntry {
	kept, dropped := models.FilterOwned(entries, user.ID)
	if dropped > 0 {
		s.auditor.LogOwnershipViolation(ctx, user.ID, audit.OwnershipDetails{
			Resource: "journal_entries",
			Dropped:  dropped,
		})
	}
	return kept
}

// invalidate tells the presentation layer the user's list changed. A failure
// does not undo the write that caused it.
func (s *journalService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.lists.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("Entry list invalidation failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logging.SanitizeError(err)))
	}
}

func (s *journalService) logDeleteFailure(user *models.User, entryID uuid.UUID, err error) {
	s.logger.Error("Failed to delete entry",
		zap.String("user_id", user.ID.String()),
		zap.String("entry_id", entryID.String()),
		zap.String("error", logging.SanitizeError(err)))
}

// Ensure journalService implements JournalService at compile time.
var _ JournalService = (*journalService)(nil)
