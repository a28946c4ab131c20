package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
)

type stubUsersRepo struct {
	byID      map[uuid.UUID]*models.User
	byEmail   map[string]*models.User
	listRows  []models.User
	lastEmail string
	lastQuery listQuery
}

func newStubUsersRepo(rows ...*models.User) *stubUsersRepo {
	repo := &stubUsersRepo{
		byID:    map[uuid.UUID]*models.User{},
		byEmail: map[string]*models.User{},
	}
	for _, row := range rows {
		repo.byID[row.ID] = row
		repo.byEmail[row.Email] = row
	}
	return repo
}

func (s *stubUsersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	row, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.lastEmail = email
	row, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubUsersRepo) List(_ context.Context, opts listQuery) ([]models.User, error) {
	s.lastQuery = opts
	return s.listRows, nil
}

func TestGetUserByEmailNormalizesLookup(t *testing.T) {
	row := &models.User{ID: uuid.New(), Email: "trader@example.com", Role: enums.UserRoleUser}
	repo := newStubUsersRepo(row)
	svc, err := NewService(repo)
	require.NoError(t, err)

	found, err := svc.GetUserByEmail(context.Background(), "  Trader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, row.ID, found.ID)
	assert.Equal(t, "trader@example.com", repo.lastEmail)
}

func TestGetUserMissingReturnsNotFound(t *testing.T) {
	svc, err := NewService(newStubUsersRepo())
	require.NoError(t, err)

	_, err = svc.GetUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.GetUser(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListUsersPaginatesAndFiltersByRole(t *testing.T) {
	now := time.Now().UTC()
	rows := make([]models.User, 3)
	for i := range rows {
		rows[i] = models.User{
			ID:        uuid.New(),
			Email:     "trader@example.com",
			Role:      enums.UserRoleUser,
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}

	repo := newStubUsersRepo()
	repo.listRows = rows
	svc, err := NewService(repo)
	require.NoError(t, err)

	result, err := svc.ListUsers(context.Background(), ListParams{Role: "user", Limit: 2})
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	assert.NotEmpty(t, result.Cursor)
	assert.Equal(t, "USER", repo.lastQuery.role)
	assert.Equal(t, 3, repo.lastQuery.limit)
}

func TestListUsersRejectsBadFilters(t *testing.T) {
	svc, err := NewService(newStubUsersRepo())
	require.NoError(t, err)

	_, err = svc.ListUsers(context.Background(), ListParams{Role: "SUPERUSER"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.ListUsers(context.Background(), ListParams{Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
