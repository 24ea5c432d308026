package services

import (
	"context"
	"testing"
	"time"

	"metrix-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) FindUser(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpsertUser(ctx context.Context, user *models.User) error {
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, session *models.Session) error {
	stored := *session
	f.sessions[session.ID] = &stored
	return nil
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func newTestAuthService() (*AuthService, *fakeUserRepo, *fakeSessionRepo) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	svc := &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		now:         func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) },
	}
	return svc, userRepo, sessionRepo
}

// ============================================================================
// TESTS
// ============================================================================

func TestLogin_NewUserKeepsRawPhoneDisplay(t *testing.T) {
	svc, userRepo, _ := newTestAuthService()

	user, sessionID, err := svc.Login(context.Background(), "+7 (707) 123-45-67")

	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, "77071234567", user.ID, "document id is the normalized digits")
	assert.Equal(t, "+7 (707) 123-45-67", user.Phone, "display phone keeps the original spelling")
	assert.Contains(t, userRepo.users, "77071234567")
}

func TestLogin_IdempotentAcrossSpellings(t *testing.T) {
	svc, userRepo, _ := newTestAuthService()

	first, _, err := svc.Login(context.Background(), "87071234567")
	require.NoError(t, err)
	second, _, err := svc.Login(context.Background(), "+7 707 123 45 67")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "every spelling lands on the same user")
	assert.Len(t, userRepo.users, 1)
}

func TestLogin_NoDigitsRejected(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService()

	_, _, err := svc.Login(context.Background(), "not a phone")

	assert.Error(t, err)
	assert.Empty(t, sessionRepo.sessions)
}

func TestRestore_KnownSession(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, sessionID, err := svc.Login(context.Background(), "87071234567")
	require.NoError(t, err)

	user, err := svc.Restore(context.Background(), sessionID)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "77071234567", user.ID)
}

func TestRestore_UnknownSessionIsSilent(t *testing.T) {
	svc, _, _ := newTestAuthService()

	user, err := svc.Restore(context.Background(), "no-such-session")

	assert.NoError(t, err, "restore is best-effort and never errors")
	assert.Nil(t, user)
}

func TestRestore_BrokenSessionIsCleared(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService()

	sessionRepo.sessions["bad"] = &models.Session{ID: "bad", Phone: "---"}

	user, err := svc.Restore(context.Background(), "bad")

	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NotContains(t, sessionRepo.sessions, "bad", "a session that cannot restore is dropped")
}

func TestLogout_DropsSession(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService()

	_, sessionID, err := svc.Login(context.Background(), "87071234567")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sessionID))
	assert.Empty(t, sessionRepo.sessions)

	user, err := svc.Restore(context.Background(), sessionID)
	assert.NoError(t, err)
	assert.Nil(t, user)
}
