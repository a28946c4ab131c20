package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
)

type stubBillingRepo struct {
	byID    map[uuid.UUID]*models.Payment
	byUser  []models.Payment
	created []*models.Payment
	updated []models.Payment
}

func (s *stubBillingRepo) WithTx(_ *gorm.DB) Repository { return s }

func (s *stubBillingRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	row, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *row
	return &clone, nil
}

func (s *stubBillingRepo) Create(_ context.Context, row *models.Payment) (*models.Payment, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	s.created = append(s.created, row)
	return row, nil
}

func (s *stubBillingRepo) Update(_ context.Context, row *models.Payment) error {
	s.updated = append(s.updated, *row)
	return nil
}

func (s *stubBillingRepo) List(_ context.Context, _ listQuery) ([]models.Payment, error) {
	return nil, nil
}

func (s *stubBillingRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]models.Payment, error) {
	return s.byUser, nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	row, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type stubAccruer struct {
	payments []*models.Payment
}

func (s *stubAccruer) AccrueForPayment(_ context.Context, payment *models.Payment) error {
	s.payments = append(s.payments, payment)
	return nil
}

type stubBillingRecorder struct {
	entries []auditlog.Entry
}

func (s *stubBillingRecorder) Record(_ context.Context, entry auditlog.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func strPtr(v string) *string { return &v }

func newBillingFixture(t *testing.T) (Service, *stubBillingRepo, *stubAccruer, *stubBillingRecorder, uuid.UUID) {
	t.Helper()

	userID := uuid.New()
	repo := &stubBillingRepo{byID: map[uuid.UUID]*models.Payment{}}
	accrue := &stubAccruer{}
	audit := &stubBillingRecorder{}

	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Users:       &stubUsers{users: map[uuid.UUID]*models.User{userID: {ID: userID, Email: "payer@example.com"}}},
		Commissions: accrue,
		Audit:       audit,
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Now:         func() time.Time { return time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc, repo, accrue, audit, userID
}

func TestCreatePaymentComputesTotals(t *testing.T) {
	svc, repo, _, audit, userID := newBillingFixture(t)

	created, err := svc.CreatePayment(context.Background(), Actor{ID: userID, Role: enums.UserRoleUser}, CreateInput{
		UserID: userID,
		Items: []ItemInput{
			{PairID: uuid.New(), Period: "ONE_MONTH", BasePrice: "100.00"},
			{PairID: uuid.New(), Period: "THREE_MONTHS", BasePrice: "200.00", DiscountRate: strPtr("0.25")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPending, created.Status)
	assert.Equal(t, "250", created.TotalAmount.String())
	assert.Equal(t, "USD", created.Currency)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "150", created.Items[1].FinalPrice.String())

	require.Len(t, repo.created, 1)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "payment.create", audit.entries[0].Action)
	assert.Equal(t, enums.UserRoleUser, audit.entries[0].ActorRole)
}

func TestCreatePaymentValidation(t *testing.T) {
	svc, _, _, _, userID := newBillingFixture(t)

	_, err := svc.CreatePayment(context.Background(), Actor{ID: userID, Role: enums.UserRoleUser}, CreateInput{
		UserID: userID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreatePayment(context.Background(), Actor{ID: userID, Role: enums.UserRoleUser}, CreateInput{
		UserID: uuid.New(),
		Items:  []ItemInput{{PairID: uuid.New(), Period: "ONE_MONTH", BasePrice: "10"}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdatePaymentStatusPaidAccruesCommission(t *testing.T) {
	svc, repo, accrue, audit, userID := newBillingFixture(t)

	paymentID := uuid.New()
	repo.byID[paymentID] = &models.Payment{
		ID:          paymentID,
		UserID:      userID,
		Status:      enums.PaymentStatusPending,
		TotalAmount: dec("99.00"),
	}

	updated, err := svc.UpdatePaymentStatus(context.Background(), Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}, paymentID, "paid", strPtr("99.00"))
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)
	require.NotNil(t, updated.ActuallyPaid)

	require.Len(t, accrue.payments, 1)
	assert.Equal(t, paymentID, accrue.payments[0].ID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "payment.update_status", audit.entries[0].Action)
}

func TestUpdatePaymentStatusTerminalRejected(t *testing.T) {
	svc, repo, accrue, _, userID := newBillingFixture(t)

	paymentID := uuid.New()
	repo.byID[paymentID] = &models.Payment{
		ID:          paymentID,
		UserID:      userID,
		Status:      enums.PaymentStatusFailed,
		TotalAmount: dec("10.00"),
	}

	_, err := svc.UpdatePaymentStatus(context.Background(), Actor{ID: uuid.New(), Role: enums.UserRoleAdmin}, paymentID, "PAID", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, accrue.payments)
}

func TestUserStatsFoldsPayments(t *testing.T) {
	svc, repo, _, _, userID := newBillingFixture(t)
	repo.byUser = []models.Payment{
		{Status: enums.PaymentStatusPaid, TotalAmount: dec("60.00")},
		{Status: enums.PaymentStatusPending, TotalAmount: dec("40.00")},
	}

	stats, err := svc.UserStats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, "60", stats.TotalSpent.String())
	assert.Equal(t, 2, stats.TotalPayments)
	assert.Equal(t, 1, stats.PendingPayments)
}
