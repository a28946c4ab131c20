package pairs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

type stubPairsRepo struct {
	rows      map[uuid.UUID]*models.Pair
	listRows  []models.Pair
	createErr error
	updated   *models.Pair
	deleted   []uuid.UUID
	lastQuery listQuery
}

func newStubPairsRepo(rows ...*models.Pair) *stubPairsRepo {
	repo := &stubPairsRepo{rows: map[uuid.UUID]*models.Pair{}}
	for _, row := range rows {
		repo.rows[row.ID] = row
	}
	return repo
}

func (s *stubPairsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Pair, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubPairsRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Pair, error) {
	var out []models.Pair
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubPairsRepo) Create(_ context.Context, row *models.Pair) (*models.Pair, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	created := *row
	created.ID = uuid.New()
	s.rows[created.ID] = &created
	return &created, nil
}

func (s *stubPairsRepo) Update(_ context.Context, row *models.Pair) error {
	copied := *row
	s.updated = &copied
	s.rows[row.ID] = &copied
	return nil
}

func (s *stubPairsRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.rows, id)
	return nil
}

func (s *stubPairsRepo) List(_ context.Context, opts listQuery) ([]models.Pair, error) {
	s.lastQuery = opts
	return s.listRows, nil
}

type recordingAudit struct {
	entries []auditlog.Entry
	err     error
}

func (r *recordingAudit) Record(_ context.Context, entry auditlog.Entry) error {
	r.entries = append(r.entries, entry)
	return r.err
}

func staffActor() Actor {
	return Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
}

func newTestService(t *testing.T, repo *stubPairsRepo, audit *recordingAudit) Service {
	t.Helper()
	svc, err := NewService(repo, audit, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	return svc
}

func TestCreatePairNormalizesAndAudits(t *testing.T) {
	repo := newStubPairsRepo()
	audit := &recordingAudit{}
	svc := newTestService(t, repo, audit)

	created, err := svc.CreatePair(context.Background(), staffActor(), CreateInput{
		Symbol:    "  eurusd ",
		Timeframe: "4h",
		Version:   "v2",
		BasePrice: decimal.RequireFromString("149.99"),
	})
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", created.Symbol)
	assert.Equal(t, enums.PairStatusActive, created.Status)
	assert.NotEqual(t, uuid.Nil, created.ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "pair.create", audit.entries[0].Action)
	assert.Equal(t, "pair", audit.entries[0].EntityType)
	require.NotNil(t, audit.entries[0].EntityID)
	assert.Equal(t, created.ID, *audit.entries[0].EntityID)
}

func TestCreatePairValidatesInput(t *testing.T) {
	svc := newTestService(t, newStubPairsRepo(), &recordingAudit{})

	cases := []CreateInput{
		{Timeframe: "4h", Version: "v1"},
		{Symbol: "EURUSD", Version: "v1"},
		{Symbol: "EURUSD", Timeframe: "4h"},
		{Symbol: "EURUSD", Timeframe: "4h", Version: "v1", BasePrice: decimal.RequireFromString("-1")},
	}
	for _, input := range cases {
		_, err := svc.CreatePair(context.Background(), staffActor(), input)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestCreatePairMapsUniqueViolationToConflict(t *testing.T) {
	repo := newStubPairsRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "idx_pairs_symbol_timeframe_version"`)
	audit := &recordingAudit{}
	svc := newTestService(t, repo, audit)

	_, err := svc.CreatePair(context.Background(), staffActor(), CreateInput{
		Symbol:    "EURUSD",
		Timeframe: "4h",
		Version:   "v1",
		BasePrice: decimal.RequireFromString("100"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Empty(t, audit.entries)
}

func TestUpdatePairAppliesPartialFields(t *testing.T) {
	existing := &models.Pair{
		ID:        uuid.New(),
		Symbol:    "GBPUSD",
		Timeframe: "1d",
		Version:   "v1",
		Status:    enums.PairStatusActive,
		BasePrice: decimal.RequireFromString("200"),
	}
	repo := newStubPairsRepo(existing)
	audit := &recordingAudit{}
	svc := newTestService(t, repo, audit)

	status := "inactive"
	price := decimal.RequireFromString("180.50")
	updated, err := svc.UpdatePair(context.Background(), staffActor(), existing.ID, UpdateInput{
		Status:    &status,
		BasePrice: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PairStatusInactive, updated.Status)
	assert.True(t, updated.BasePrice.Equal(price))
	assert.Equal(t, "GBPUSD", updated.Symbol)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "pair.update", audit.entries[0].Action)
	previous, ok := audit.entries[0].Previous.(models.Pair)
	require.True(t, ok)
	assert.Equal(t, enums.PairStatusActive, previous.Status)
}

func TestUpdatePairRejectsUnknownStatus(t *testing.T) {
	existing := &models.Pair{ID: uuid.New(), Symbol: "GBPUSD", Status: enums.PairStatusActive}
	repo := newStubPairsRepo(existing)
	svc := newTestService(t, repo, &recordingAudit{})

	status := "SUSPENDED"
	_, err := svc.UpdatePair(context.Background(), staffActor(), existing.ID, UpdateInput{Status: &status})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Nil(t, repo.updated)
}

func TestDeletePairSnapshotsIntoAudit(t *testing.T) {
	existing := &models.Pair{ID: uuid.New(), Symbol: "XAUUSD", Timeframe: "1h", Version: "v3"}
	repo := newStubPairsRepo(existing)
	audit := &recordingAudit{}
	svc := newTestService(t, repo, audit)

	require.NoError(t, svc.DeletePair(context.Background(), staffActor(), existing.ID))

	assert.Equal(t, []uuid.UUID{existing.ID}, repo.deleted)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "pair.delete", audit.entries[0].Action)
	previous, ok := audit.entries[0].Previous.(*models.Pair)
	require.True(t, ok)
	assert.Equal(t, "XAUUSD", previous.Symbol)
	assert.Nil(t, audit.entries[0].Next)
}

func TestDeletePairMissingReturnsNotFound(t *testing.T) {
	svc := newTestService(t, newStubPairsRepo(), &recordingAudit{})

	err := svc.DeletePair(context.Background(), staffActor(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeletePairAuditFailureDoesNotFailDelete(t *testing.T) {
	existing := &models.Pair{ID: uuid.New(), Symbol: "XAUUSD"}
	repo := newStubPairsRepo(existing)
	audit := &recordingAudit{err: errors.New("sink down")}
	svc := newTestService(t, repo, audit)

	require.NoError(t, svc.DeletePair(context.Background(), staffActor(), existing.ID))
	assert.Len(t, repo.deleted, 1)
}

func TestListPairsPaginatesAndFilters(t *testing.T) {
	now := time.Now().UTC()
	rows := make([]models.Pair, 3)
	for i := range rows {
		rows[i] = models.Pair{
			ID:        uuid.New(),
			Symbol:    "EURUSD",
			Timeframe: "4h",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}

	repo := newStubPairsRepo()
	repo.listRows = rows
	svc := newTestService(t, repo, &recordingAudit{})

	result, err := svc.ListPairs(context.Background(), ListParams{Status: "active", Limit: 2})
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	assert.NotEmpty(t, result.Cursor)
	assert.Equal(t, "ACTIVE", repo.lastQuery.status)
	assert.Equal(t, 3, repo.lastQuery.limit)
}

func TestListPairsRejectsBadFilters(t *testing.T) {
	svc := newTestService(t, newStubPairsRepo(), &recordingAudit{})

	_, err := svc.ListPairs(context.Background(), ListParams{Status: "HALTED"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.ListPairs(context.Background(), ListParams{Cursor: "%%%"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
