package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/identity"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
)

// mockScopeProvider records scope acquisition without touching a database.
type mockScopeProvider struct {
	userErr   error
	systemErr error

	userScopes  []uuid.UUID
	systemCalls int
	released    int
}

func (m *mockScopeProvider) WithUserScope(ctx context.Context, userID uuid.UUID) (context.Context, func(), error) {
	if m.userErr != nil {
		return nil, nil, m.userErr
	}
	m.userScopes = append(m.userScopes, userID)
	return ctx, func() { m.released++ }, nil
}

func (m *mockScopeProvider) WithSystemScope(ctx context.Context) (context.Context, func(), error) {
	if m.systemErr != nil {
		return nil, nil, m.systemErr
	}
	m.systemCalls++
	return ctx, func() { m.released++ }, nil
}

// mockUserRepository is an in-memory UserRepository keyed by external id.
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[string]*models.User
	getErr error
	// createErr fails Create.
	createErr error
	// raceWinner is stored right before Create runs, as if another request won.
	raceWinner *models.User

	createCalls int
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ExternalID] = u
	}
	return m
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[externalID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return false, m.createErr
	}
	if m.raceWinner != nil {
		m.users[m.raceWinner.ExternalID] = m.raceWinner
	}
	if _, exists := m.users[user.ExternalID]; exists {
		return false, nil
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ExternalID] = user
	return true, nil
}

func (m *mockUserRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// mockEntryRepository is an in-memory JournalEntryRepository. It honors the
// (user id, entry id) predicate unless leak is set.
type mockEntryRepository struct {
	entries []*models.JournalEntry
	// leak returns every stored entry from ListByUser and GetByID, simulating
	// a lower layer that lost its user filter.
	leak bool

	listErr   error
	getErr    error
	deleteErr error
	createErr error

	// afterList runs once ListByUser has read its rows.
	afterList func()

	listCalls int
	created   *models.JournalEntry
}

func (m *mockEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.JournalEntry, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*models.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if m.leak || e.UserID == userID {
			result = append(result, e)
		}
	}
	if m.afterList != nil {
		hook := m.afterList
		m.afterList = nil
		hook()
	}
	return result, nil
}

func (m *mockEntryRepository) GetByID(ctx context.Context, userID, entryID uuid.UUID) (*models.JournalEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, e := range m.entries {
		if e.ID == entryID && (m.leak || e.UserID == userID) {
			return e, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntryRepository) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, e := range m.entries {
		if e.ID == entryID && e.UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockEntryRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.created = entry
	m.entries = append(m.entries, entry)
	return nil
}

// mockListInvalidator records invalidation hand-offs.
type mockListInvalidator struct {
	err         error
	invalidated []uuid.UUID
}

func (m *mockListInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	m.invalidated = append(m.invalidated, userID)
	return m.err
}

// mockProfileFetcher returns a fixed identity profile.
type mockProfileFetcher struct {
	profile *identity.Profile
	err     error
	calls   int
}

func (m *mockProfileFetcher) GetProfile(ctx context.Context, externalID string) (*identity.Profile, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

// mockAnalysisRepository returns fixed sentiment points.
type mockAnalysisRepository struct {
	points []*models.SentimentPoint
	err    error
}

func (m *mockAnalysisRepository) ListSentimentByUser(ctx context.Context, userID uuid.UUID) ([]*models.SentimentPoint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.points, nil
}
