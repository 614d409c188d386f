package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-journal/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-journal/pkg/identity"
	"github.com/ekaya-inc/ekaya-journal/pkg/models"
)

func testProfile() *identity.Profile {
	return &identity.Profile{
		ID:             "ext_1",
		EmailAddresses: []identity.EmailAddress{{EmailAddress: "a@x.com"}},
		FirstName:      "A",
		LastName:       "B",
	}
}

func newTestIdentityService(users *mockUserRepository, profiles *mockProfileFetcher) (IdentityService, *mockScopeProvider) {
	scopes := &mockScopeProvider{}
	return NewIdentityService(scopes, users, profiles, zap.NewNop()), scopes
}

func TestIdentityService_ResolveUser(t *testing.T) {
	existing := &models.User{ID: uuid.New(), ExternalID: "ext_1"}
	service, scopes := newTestIdentityService(newMockUserRepository(existing), &mockProfileFetcher{})

	user, err := service.ResolveUser(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, 1, scopes.systemCalls)
	assert.Equal(t, 1, scopes.released)
}

func TestIdentityService_ResolveUser_NotFound(t *testing.T) {
	service, scopes := newTestIdentityService(newMockUserRepository(), &mockProfileFetcher{})

	_, err := service.ResolveUser(context.Background(), "ext_unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// No session: no database access at all.
	_, err = service.ResolveUser(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, scopes.systemCalls)
}

func TestIdentityService_ResolveUser_StoreError(t *testing.T) {
	users := newMockUserRepository()
	users.getErr = errors.New("connection reset")
	service, _ := newTestIdentityService(users, &mockProfileFetcher{})

	_, err := service.ResolveUser(context.Background(), "ext_1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

// A first sign-in creates exactly one row; the second is a no-op.
func TestIdentityService_EnsureUser_Idempotent(t *testing.T) {
	users := newMockUserRepository()
	profiles := &mockProfileFetcher{profile: testProfile()}
	service, _ := newTestIdentityService(users, profiles)

	user, created, err := service.EnsureUser(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ext_1", user.ExternalID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "A B", user.Name)
	assert.Equal(t, 1, users.count())

	again, created, err := service.EnsureUser(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, 1, users.count())
	assert.Equal(t, 1, profiles.calls, "existing users must not hit the identity provider")
}

func TestIdentityService_EnsureUser_MissingNameParts(t *testing.T) {
	profile := testProfile()
	profile.FirstName = ""
	profile.EmailAddresses = nil
	service, _ := newTestIdentityService(newMockUserRepository(), &mockProfileFetcher{profile: profile})

	user, created, err := service.EnsureUser(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "B", user.Name)
	assert.Equal(t, "", user.Email)
}

func TestIdentityService_EnsureUser_LostRace(t *testing.T) {
	winner := &models.User{ID: uuid.New(), ExternalID: "ext_1", Name: "Winner"}
	users := newMockUserRepository()
	users.raceWinner = winner
	service, _ := newTestIdentityService(users, &mockProfileFetcher{profile: testProfile()})

	user, created, err := service.EnsureUser(context.Background(), "ext_1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, user.ID)
	assert.Equal(t, 1, users.count())
}

func TestIdentityService_EnsureUser_ProfileMismatch(t *testing.T) {
	profile := testProfile()
	profile.ID = "ext_someone_else"
	users := newMockUserRepository()
	service, _ := newTestIdentityService(users, &mockProfileFetcher{profile: profile})

	_, _, err := service.EnsureUser(context.Background(), "ext_1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 0, users.createCalls)
}

func TestIdentityService_EnsureUser_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		fetchErr   error
		wantUnauth bool
	}{
		{"unknown to provider", identity.ErrUserNotFound, true},
		{"provider down", identity.ErrProviderUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserRepository()
			service, _ := newTestIdentityService(users, &mockProfileFetcher{err: tt.fetchErr})

			_, _, err := service.EnsureUser(context.Background(), "ext_1")
			require.Error(t, err)
			assert.Equal(t, tt.wantUnauth, errors.Is(err, apperrors.ErrUnauthorized))
			assert.ErrorIs(t, err, tt.fetchErr)
			assert.Equal(t, 0, users.count())
		})
	}
}

func TestIdentityService_EnsureUser_NoSession(t *testing.T) {
	profiles := &mockProfileFetcher{profile: testProfile()}
	service, scopes := newTestIdentityService(newMockUserRepository(), profiles)

	_, _, err := service.EnsureUser(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 0, scopes.systemCalls)
	assert.Equal(t, 0, profiles.calls)
}

func TestIdentityService_EnsureUser_ScopeError(t *testing.T) {
	scopes := &mockScopeProvider{systemErr: errors.New("pool exhausted")}
	service := NewIdentityService(scopes, newMockUserRepository(), &mockProfileFetcher{}, zap.NewNop())

	_, _, err := service.EnsureUser(context.Background(), "ext_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool exhausted")
}

func TestIdentityService_EnsureUser_AuditsProvisioningAndMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	service := NewIdentityService(&mockScopeProvider{}, newMockUserRepository(), &mockProfileFetcher{profile: testProfile()}, zap.New(core))

	user, created, err := service.EnsureUser(context.Background(), "ext_1")
	require.NoError(t, err)
	require.True(t, created)

	provisioned := logs.FilterLoggerName("security_audit").FilterMessage("User provisioned").All()
	require.Len(t, provisioned, 1)
	assert.Equal(t, user.ID.String(), provisioned[0].ContextMap()["user_id"])

	mismatch := testProfile()
	mismatch.ID = "ext_other"
	service = NewIdentityService(&mockScopeProvider{}, newMockUserRepository(), &mockProfileFetcher{profile: mismatch}, zap.New(core))
	_, _, err = service.EnsureUser(context.Background(), "ext_1")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 1, logs.FilterLoggerName("security_audit").FilterLevelExact(zapcore.ErrorLevel).Len())
}
