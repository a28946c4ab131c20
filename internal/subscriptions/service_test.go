package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/internal/notifications"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

type stubSubsRepo struct {
	byID      map[uuid.UUID]*models.Subscription
	active    []models.Subscription
	updated   []models.Subscription
	createdAt [][]*models.Subscription
	deleted   []uuid.UUID
	calls     int
}

func (s *stubSubsRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubSubsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	s.calls++
	row, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubSubsRepo) CreateBatch(_ context.Context, rows []*models.Subscription) error {
	s.calls++
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	s.createdAt = append(s.createdAt, rows)
	return nil
}

func (s *stubSubsRepo) Update(_ context.Context, row *models.Subscription) error {
	s.calls++
	s.updated = append(s.updated, *row)
	return nil
}

func (s *stubSubsRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.calls++
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSubsRepo) List(_ context.Context, _ listQuery) ([]models.Subscription, error) {
	s.calls++
	return nil, nil
}

func (s *stubSubsRepo) FindActiveByUserAndPairs(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]models.Subscription, error) {
	s.calls++
	return s.active, nil
}

func (s *stubSubsRepo) UpdateStatusWithTx(_ *gorm.DB, id uuid.UUID, status enums.SubscriptionStatus) error {
	s.calls++
	if row, ok := s.byID[id]; ok {
		row.Status = status
	}
	return nil
}

func (s *stubSubsRepo) ListExpiredActive(_ context.Context, _ time.Time, _ int) ([]models.Subscription, error) {
	s.calls++
	return nil, nil
}

type stubUserDirectory struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserDirectory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	row, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type stubPairCatalog struct {
	pairs map[uuid.UUID]models.Pair
}

func (s *stubPairCatalog) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Pair, error) {
	var rows []models.Pair
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if row, ok := s.pairs[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRecorder struct {
	entries []auditlog.Entry
}

func (s *stubRecorder) Record(_ context.Context, entry auditlog.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubMailer struct {
	sent []notifications.Email
}

func (s *stubMailer) Send(_ context.Context, email notifications.Email) error {
	s.sent = append(s.sent, email)
	return nil
}

type fixture struct {
	repo     *stubSubsRepo
	users    *stubUserDirectory
	pairs    *stubPairCatalog
	audit    *stubRecorder
	mailer   *stubMailer
	svc      Service
	now      time.Time
	userID   uuid.UUID
	pairID   uuid.UUID
	subID    uuid.UUID
	userMail string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	pairID := uuid.New()
	subID := uuid.New()

	user := &models.User{ID: userID, Email: "trader@example.com", Role: enums.UserRoleUser}
	pair := models.Pair{ID: pairID, Symbol: "BTCUSDT", Timeframe: "4h", Version: "v2", Status: enums.PairStatusActive}

	repo := &stubSubsRepo{
		byID: map[uuid.UUID]*models.Subscription{
			subID: {
				ID:           subID,
				UserID:       userID,
				PairID:       pairID,
				Status:       enums.SubscriptionStatusPending,
				InviteStatus: enums.InviteStatusSent,
				Period:       enums.SubscriptionPeriodThreeMonths,
				User:         user,
				Pair:         &pair,
			},
		},
	}
	users := &stubUserDirectory{users: map[uuid.UUID]*models.User{userID: user}}
	pairs := &stubPairCatalog{pairs: map[uuid.UUID]models.Pair{pairID: pair}}
	audit := &stubRecorder{}
	mailer := &stubMailer{}

	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Users:  users,
		Pairs:  pairs,
		Tx:     stubTxRunner{},
		Audit:  audit,
		Mailer: mailer,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	return &fixture{
		repo:     repo,
		users:    users,
		pairs:    pairs,
		audit:    audit,
		mailer:   mailer,
		svc:      svc,
		now:      now,
		userID:   userID,
		pairID:   pairID,
		subID:    subID,
		userMail: "trader@example.com",
	}
}

func strPtr(v string) *string { return &v }

func adminActor() Actor {
	return Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}
}

func TestUpdateCompletingInviteStampsDates(t *testing.T) {
	f := newFixture(t)

	clientStart := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	clientExpiry := time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC)

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		InviteStatus: strPtr("COMPLETED"),
		StartDate:    &clientStart,
		ExpiryDate:   &clientExpiry,
	})
	require.NoError(t, err)

	require.NotNil(t, row.StartDate)
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, f.now, *row.StartDate)
	assert.Equal(t, f.now.AddDate(0, 3, 0), *row.ExpiryDate)
	assert.Equal(t, enums.InviteStatusCompleted, row.InviteStatus)
}

func TestUpdateCompletingInviteUsesRequestPeriod(t *testing.T) {
	f := newFixture(t)

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		InviteStatus: strPtr("completed"),
		Period:       strPtr("TWELVE_MONTHS"),
	})
	require.NoError(t, err)

	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, f.now.AddDate(0, 12, 0), *row.ExpiryDate)
	assert.Equal(t, enums.SubscriptionPeriodTwelveMonths, row.Period)
}

func TestUpdateCompletingInviteUnknownPeriodLeavesExpiry(t *testing.T) {
	f := newFixture(t)
	f.repo.byID[f.subID].Period = "LIFETIME"
	oldExpiry := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	f.repo.byID[f.subID].ExpiryDate = &oldExpiry

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		InviteStatus: strPtr("COMPLETED"),
	})
	require.NoError(t, err)

	require.NotNil(t, row.StartDate)
	assert.Equal(t, f.now, *row.StartDate)
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, oldExpiry, *row.ExpiryDate)
}

func TestUpdateMonthOverflowFollowsAddDate(t *testing.T) {
	f := newFixture(t)
	jan31 := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)

	svc, err := NewService(ServiceParams{
		Repo:   f.repo,
		Users:  f.users,
		Pairs:  f.pairs,
		Tx:     stubTxRunner{},
		Audit:  f.audit,
		Mailer: f.mailer,
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Now:    func() time.Time { return jan31 },
	})
	require.NoError(t, err)

	row, err := svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		InviteStatus: strPtr("COMPLETED"),
		Period:       strPtr("ONE_MONTH"),
	})
	require.NoError(t, err)

	// 2026 is not a leap year: Jan 31 + 1 month normalizes to Mar 3.
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC), *row.ExpiryDate)
}

func TestUpdateNonCompletionHonorsExplicitDates(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		Status:     strPtr("ACTIVE"),
		StartDate:  &start,
		ExpiryDate: &expiry,
	})
	require.NoError(t, err)

	require.NotNil(t, row.StartDate)
	require.NotNil(t, row.ExpiryDate)
	assert.Equal(t, start, *row.StartDate)
	assert.Equal(t, expiry, *row.ExpiryDate)
	assert.Equal(t, enums.SubscriptionStatusActive, row.Status)
}

func TestUpdateCancelKeepsDatesAndNotifiesUnchangedInvite(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	existing := f.repo.byID[f.subID]
	existing.Status = enums.SubscriptionStatusActive
	existing.StartDate = &start
	existing.ExpiryDate = &expiry

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		Status: strPtr("CANCELLED"),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.SubscriptionStatusCancelled, row.Status)
	assert.Equal(t, start, *row.StartDate)
	assert.Equal(t, expiry, *row.ExpiryDate)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "subscription.update", f.audit.entries[0].Action)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, enums.EmailTemplateInviteSent, f.mailer.sent[0].Template)
	assert.Equal(t, f.userMail, f.mailer.sent[0].To)
}

func TestUpdateParsesPrices(t *testing.T) {
	f := newFixture(t)

	row, err := f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		BasePrice:    strPtr("149.99"),
		DiscountRate: strPtr("0.15"),
	})
	require.NoError(t, err)

	require.NotNil(t, row.BasePrice)
	require.NotNil(t, row.DiscountRate)
	assert.Equal(t, "149.99", row.BasePrice.String())
	assert.Equal(t, "0.15", row.DiscountRate.String())

	_, err = f.svc.UpdateSubscription(context.Background(), adminActor(), f.subID, UpdateInput{
		BasePrice: strPtr("not-a-number"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateSubscription(context.Background(), adminActor(), uuid.New(), UpdateInput{
		Status: strPtr("ACTIVE"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateRoutesUserActorToEvents(t *testing.T) {
	f := newFixture(t)

	actor := Actor{ID: f.userID, Role: enums.UserRoleUser}
	_, err := f.svc.UpdateSubscription(context.Background(), actor, f.subID, UpdateInput{
		Status: strPtr("CANCELLED"),
	})
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, enums.UserRoleUser, f.audit.entries[0].ActorRole)
}

func TestResolveInviteStatusAlias(t *testing.T) {
	modern := "COMPLETED"
	legacy := "SENT"

	assert.Equal(t, &modern, ResolveInviteStatusAlias(&modern, &legacy))
	assert.Equal(t, &legacy, ResolveInviteStatusAlias(nil, &legacy))
	assert.Nil(t, ResolveInviteStatusAlias(nil, nil))
}

func TestCreateEmptyPairsFailsBeforeRepoAccess(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSubscriptions(context.Background(), adminActor(), CreateInput{
		UserID: f.userID,
		Pairs:  nil,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Zero(t, f.repo.calls)
}

func TestCreateMissingUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSubscriptions(context.Background(), adminActor(), CreateInput{
		UserID: uuid.New(),
		Pairs:  []CreatePairInput{{PairID: f.pairID, Period: "ONE_MONTH"}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateMissingPair(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateSubscriptions(context.Background(), adminActor(), CreateInput{
		UserID: f.userID,
		Pairs: []CreatePairInput{
			{PairID: f.pairID, Period: "ONE_MONTH"},
			{PairID: uuid.New(), Period: "ONE_MONTH"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Empty(t, f.repo.createdAt)
}

func TestCreateConflictListsSymbolsAndCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.repo.active = []models.Subscription{
		{
			UserID: f.userID,
			PairID: f.pairID,
			Status: enums.SubscriptionStatusActive,
			Pair:   &models.Pair{ID: f.pairID, Symbol: "BTCUSDT"},
		},
	}

	_, err := f.svc.CreateSubscriptions(context.Background(), adminActor(), CreateInput{
		UserID: f.userID,
		Pairs:  []CreatePairInput{{PairID: f.pairID, Period: "SIX_MONTHS"}},
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "BTCUSDT")
	assert.Empty(t, f.repo.createdAt)
}

func TestCreateBatchAllPending(t *testing.T) {
	f := newFixture(t)
	secondPair := uuid.New()
	f.pairs.pairs[secondPair] = models.Pair{ID: secondPair, Symbol: "ETHUSDT", Timeframe: "1h", Version: "v1"}

	start := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	created, err := f.svc.CreateSubscriptions(context.Background(), adminActor(), CreateInput{
		UserID:    f.userID,
		StartDate: &start,
		Pairs: []CreatePairInput{
			{PairID: f.pairID, Period: "ONE_MONTH", BasePrice: strPtr("99.00")},
			{PairID: secondPair, Period: "THREE_MONTHS"},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	for _, row := range created {
		assert.Equal(t, enums.SubscriptionStatusPending, row.Status)
		assert.Equal(t, enums.InviteStatusPending, row.InviteStatus)
	}
	assert.Equal(t, start, *created[0].StartDate)
	require.NotNil(t, created[0].BasePrice)
	assert.Equal(t, "99", created[0].BasePrice.String())

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "subscription.create", f.audit.entries[0].Action)
}

func TestDeleteSnapshotsBeforeHardDelete(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteSubscription(context.Background(), adminActor(), f.subID)
	require.NoError(t, err)

	require.Len(t, f.repo.deleted, 1)
	assert.Equal(t, f.subID, f.repo.deleted[0])

	require.Len(t, f.audit.entries, 1)
	entry := f.audit.entries[0]
	assert.Equal(t, "subscription.delete", entry.Action)
	require.NotNil(t, entry.Previous)
	previous, ok := entry.Previous.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, f.subID, previous["id"])
	assert.Nil(t, entry.Next)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteSubscription(context.Background(), adminActor(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
