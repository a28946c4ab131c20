package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/tradepulse/tradepulse-backend/pkg/auth"
	"github.com/tradepulse/tradepulse-backend/pkg/auth/session"
	"github.com/tradepulse/tradepulse-backend/pkg/config"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/security"
)

type stubUserFinder struct {
	users map[string]*models.User
}

func (s *stubUserFinder) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubSessions struct {
	generated []string
	rotated   []string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotated = append(s.rotated, oldAccessID)
	newID := session.NewAccessID()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "tradepulse-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newAuthFixture(t *testing.T, password string) (Service, *models.User, *stubSessions) {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)

	name := "Trader"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "trader@example.com",
		Name:         &name,
		Role:         enums.UserRoleUser,
		PasswordHash: hash,
	}
	sessions := &stubSessions{}
	svc, err := NewService(
		&stubUserFinder{users: map[string]*models.User{user.Email: user}},
		sessions,
		testJWTConfig(),
		logger.New(logger.Options{ServiceName: "test"}),
	)
	require.NoError(t, err)
	return svc, user, sessions
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, user, sessions := newAuthFixture(t, "hunter2-hunter2")

	pair, got, err := svc.Login(context.Background(), LoginInput{
		Email:    "Trader@Example.com",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, user.ID, got.ID)
	require.Len(t, sessions.generated, 1)
	assert.Equal(t, "refresh-"+sessions.generated[0], pair.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleUser, claims.Role)
	assert.Equal(t, sessions.generated[0], claims.ID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _, sessions := newAuthFixture(t, "hunter2-hunter2")

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "trader@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code)
	assert.Empty(t, sessions.generated)
}

func TestLoginUnknownEmailMatchesWrongPasswordError(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "hunter2-hunter2")

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "hunter2-hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, user, _ := newAuthFixture(t, "hunter2-hunter2")
	user.Disabled = true

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "trader@example.com",
		Password: "hunter2-hunter2",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthFixture(t, "hunter2-hunter2")

	pair, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "trader@example.com",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken))
	require.Len(t, sessions.revoked, 1)
	assert.Equal(t, sessions.generated[0], sessions.revoked[0])
}

func TestRefreshRotatesSessionAndMintsNewToken(t *testing.T) {
	svc, user, sessions := newAuthFixture(t, "hunter2-hunter2")

	pair, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "trader@example.com",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	require.Len(t, sessions.rotated, 1)
	assert.Equal(t, sessions.generated[0], sessions.rotated[0])
	assert.NotEqual(t, pair.RefreshToken, renewed.RefreshToken)
	assert.True(t, renewed.ExpiresAt.After(time.Now()))

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), renewed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEqual(t, sessions.generated[0], claims.ID)
}

func TestRefreshRejectsInvalidRefreshToken(t *testing.T) {
	svc, _, sessions := newAuthFixture(t, "hunter2-hunter2")
	sessions.rotateErr = session.ErrInvalidRefreshToken

	pair, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "trader@example.com",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken, "stolen")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code)
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "hunter2-hunter2")

	_, err := svc.Refresh(context.Background(), "not-a-jwt", "refresh")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code)
}
