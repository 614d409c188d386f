package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
)

// mockIdentityService resolves a fixed set of users by external id.
type mockIdentityService struct {
	users      map[string]*models.User
	resolveErr error

	ensureUser    *models.User
	ensureCreated bool
	ensureErr     error
	ensureCalls   []string
}

func (m *mockIdentityService) ResolveUser(ctx context.Context, externalID string) (*models.User, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	if u, ok := m.users[externalID]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockIdentityService) EnsureUser(ctx context.Context, externalID string) (*models.User, bool, error) {
	m.ensureCalls = append(m.ensureCalls, externalID)
	if m.ensureErr != nil {
		return nil, false, m.ensureErr
	}
	return m.ensureUser, m.ensureCreated, nil
}

// mockJournalService returns canned results and records calls.
type mockJournalService struct {
	entries  []*models.JournalEntry
	entry    *models.JournalEntry
	listErr  error
	getErr   error
	delErr   error
	creatErr error

	gotUser    *models.User
	gotEntryID uuid.UUID
	gotContent string
}

func (m *mockJournalService) ListEntries(ctx context.Context, user *models.User) ([]*models.JournalEntry, error) {
	m.gotUser = user
	return m.entries, m.listErr
}

func (m *mockJournalService) GetEntry(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.JournalEntry, error) {
	m.gotUser, m.gotEntryID = user, entryID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entry, nil
}

func (m *mockJournalService) DeleteEntry(ctx context.Context, user *models.User, entryID uuid.UUID) error {
	m.gotUser, m.gotEntryID = user, entryID
	return m.delErr
}

func (m *mockJournalService) CreateEntry(ctx context.Context, user *models.User, content string) (*models.JournalEntry, error) {
	m.gotUser, m.gotContent = user, content
	if m.creatErr != nil {
		return nil, m.creatErr
	}
	return &models.JournalEntry{ID: uuid.New(), UserID: user.ID, Content: content}, nil
}

// mockAnalyticsService returns canned sentiment points.
type mockAnalyticsService struct {
	points []*models.SentimentPoint
	err    error
}

func (m *mockAnalyticsService) ListAnalytics(ctx context.Context, user *models.User) ([]*models.SentimentPoint, error) {
	return m.points, m.err
}

// withSession returns r carrying claims for externalID, as RequireAuth would set them.
func withSession(r *http.Request, externalID string) *http.Request {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: externalID}}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

// newDevAuthMiddleware builds the real auth stack with signature verification off.
func newDevAuthMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	t.Cleanup(jwksClient.Close)
	return auth.NewMiddleware(auth.NewAuthService(jwksClient, "__session", zap.NewNop()), zap.NewNop())
}
