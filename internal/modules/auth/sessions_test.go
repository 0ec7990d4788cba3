package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"
	"time"

	"localservices/internal/domain"
	"localservices/internal/pkg/jwt"
	"localservices/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSessionService(t *testing.T) (*SessionService, *jwt.Service) {
	svc, tokens, _ := setupSessionServiceWithUsers(t)
	return svc, tokens
}

func setupSessionServiceWithUsers(t *testing.T) (*SessionService, *jwt.Service, *repository.UserRepository) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sqlite tests require cgo")
	}

	dsn := fmt.Sprintf("file:sessions_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	sqlDB.SetMaxOpenConns(1)
	models := append([]any{&domain.Session{}}, repository.UserModels()...)
	require.NoError(t, db.AutoMigrate(models...))

	users := repository.NewUserRepository(db)
	tokens := jwt.New("test-secret", time.Hour)
	svc := NewSessionService(repository.NewSessionRepository(db), users, tokens, "pepper", 24*time.Hour)
	return svc, tokens, users
}

func activeUser(id int64) *domain.User {
	return &domain.User{ID: id, Role: domain.RoleCustomer, AccountStatus: domain.AccountActive}
}

func TestIssueSession(t *testing.T) {
	svc, tokens := setupSessionService(t)
	ctx := context.Background()

	issued, err := svc.IssueSession(ctx, activeUser(7))
	require.NoError(t, err)
	assert.NotZero(t, issued.Session.ID)
	assert.NotEqual(t, issued.RefreshToken, issued.Session.TokenHash)
	assert.Len(t, issued.Session.TokenHash, 64)

	claims, err := tokens.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, issued.Session.ID, claims.SessionID)

	assert.NoError(t, svc.ValidateSession(ctx, 7, issued.Session.ID))
	assert.ErrorIs(t, svc.ValidateSession(ctx, 8, issued.Session.ID), ErrUnauthorized)
	assert.ErrorIs(t, svc.ValidateSession(ctx, 7, 9999), ErrUnauthorized)
}

func TestIssueSession_SuspendedUser(t *testing.T) {
	svc, _ := setupSessionService(t)

	u := activeUser(7)
	u.AccountStatus = domain.AccountSuspended
	_, err := svc.IssueSession(context.Background(), u)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRevokeAllSessions_CountsOnlyActive(t *testing.T) {
	svc, _ := setupSessionService(t)
	ctx := context.Background()

	var issued []*IssuedSession
	for i := 0; i < 3; i++ {
		s, err := svc.IssueSession(ctx, activeUser(7))
		require.NoError(t, err)
		issued = append(issued, s)
	}
	_, err := svc.IssueSession(ctx, activeUser(8))
	require.NoError(t, err)

	active, err := svc.ActiveSessions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), active)

	revoked, err := svc.RevokeAllSessions(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), revoked)

	for _, s := range issued {
		assert.ErrorIs(t, svc.ValidateSession(ctx, 7, s.Session.ID), ErrSessionRevoked)
	}

	again, err := svc.RevokeAllSessions(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, again)

	others, err := svc.ActiveSessions(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), others)
}

func TestRevokeAllSessions_NoSessions(t *testing.T) {
	svc, _ := setupSessionService(t)

	n, err := svc.RevokeAllSessions(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionExpiryAndPurge(t *testing.T) {
	svc, _ := setupSessionService(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old, err := svc.IssueSession(ctx, activeUser(7))
	require.NoError(t, err)
	fresh, err := svc.IssueSession(ctx, activeUser(8))
	require.NoError(t, err)
	_, err = svc.RevokeAllSessions(ctx, 8)
	require.NoError(t, err)

	// jump past the first session's lifetime
	now = now.Add(25 * time.Hour)
	assert.ErrorIs(t, svc.ValidateSession(ctx, 7, old.Session.ID), ErrSessionExpired)

	// an expired session is not active, so revoking it counts nothing
	n, err := svc.RevokeAllSessions(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n)

	purged, err := svc.PurgeExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	assert.ErrorIs(t, svc.ValidateSession(ctx, 8, fresh.Session.ID), ErrUnauthorized)
}

func TestRefreshSession_RotatesToken(t *testing.T) {
	svc, tokens, users := setupSessionServiceWithUsers(t)
	ctx := context.Background()

	u := &domain.User{Email: "refresh@example.com", Role: domain.RoleProvider}
	require.NoError(t, users.Create(ctx, u))

	first, err := svc.IssueSession(ctx, u)
	require.NoError(t, err)

	second, err := svc.RefreshSession(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	claims, err := tokens.ValidateToken(second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "provider", claims.Role)
	assert.Equal(t, second.Session.ID, claims.SessionID)

	assert.ErrorIs(t, svc.ValidateSession(ctx, u.ID, first.Session.ID), ErrSessionRevoked)
	assert.NoError(t, svc.ValidateSession(ctx, u.ID, second.Session.ID))

	// a spent token cannot be replayed
	_, err = svc.RefreshSession(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	active, err := svc.ActiveSessions(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestRefreshSession_Rejects(t *testing.T) {
	svc, _, users := setupSessionServiceWithUsers(t)
	ctx := context.Background()

	_, err := svc.RefreshSession(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.RefreshSession(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	u := &domain.User{Email: "gone@example.com", Role: domain.RoleCustomer}
	require.NoError(t, users.Create(ctx, u))

	revoked, err := svc.IssueSession(ctx, u)
	require.NoError(t, err)
	_, err = svc.RevokeAllSessions(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.RefreshSession(ctx, revoked.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	expiring, err := svc.IssueSession(ctx, u)
	require.NoError(t, err)
	now = now.Add(25 * time.Hour)
	_, err = svc.RefreshSession(ctx, expiring.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRefreshSession_SuspendedAccount(t *testing.T) {
	svc, _, users := setupSessionServiceWithUsers(t)
	ctx := context.Background()

	u := &domain.User{Email: "banned@example.com", Role: domain.RoleProvider}
	require.NoError(t, users.Create(ctx, u))
	issued, err := svc.IssueSession(ctx, u)
	require.NoError(t, err)

	// suspended without the revocation step, as after a failed revoke
	applied, err := users.Suspend(ctx, u.ID, 1, "spam", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, applied)

	_, err = svc.RefreshSession(ctx, issued.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountSuspended)

	// the token was not spent by the failed attempt
	assert.NoError(t, svc.ValidateSession(ctx, u.ID, issued.Session.ID))
}

type failingUsers struct{}

func (failingUsers) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, errors.New("db down")
}

func TestRefreshSession_UserLookupFailure(t *testing.T) {
	svc, _ := setupSessionService(t)
	ctx := context.Background()

	issued, err := svc.IssueSession(ctx, activeUser(7))
	require.NoError(t, err)

	svc.users = failingUsers{}
	_, err = svc.RefreshSession(ctx, issued.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NoError(t, svc.ValidateSession(ctx, 7, issued.Session.ID))
}
