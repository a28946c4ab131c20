package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

// Actor aliases the audit log actor.
type Actor = auditlog.Actor

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// accruer is the commissions surface billing depends on.
type accruer interface {
	AccrueForPayment(ctx context.Context, payment *models.Payment) error
}

// ItemInput is one pair/period line in a payment.
type ItemInput struct {
	PairID       uuid.UUID
	Period       string
	BasePrice    string
	DiscountRate *string
}

// CreateInput holds the fields for a new payment record.
type CreateInput struct {
	UserID   uuid.UUID
	Currency string
	Items    []ItemInput
}

// ListParams hold payment listing filters.
type ListParams struct {
	UserID uuid.UUID
	Status string
	Limit  int
	Cursor string
}

// ListResult is one page of payments.
type ListResult struct {
	Items  []models.Payment
	Cursor string
}

// Service records payments and serves billing aggregates. Payments are
// recorded, not charged; gateway protocol handling lives elsewhere.
type Service interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, params ListParams) (*ListResult, error)
	CreatePayment(ctx context.Context, actor Actor, input CreateInput) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, status string, actuallyPaid *string) (*models.Payment, error)
	UserStats(ctx context.Context, userID uuid.UUID) (*Stats, error)
}

// ServiceParams configure the billing service.
type ServiceParams struct {
	Repo        Repository
	Users       userDirectory
	Commissions accruer
	Audit       auditlog.Recorder
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo        Repository
	users       userDirectory
	commissions accruer
	audit       auditlog.Recorder
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the billing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Commissions == nil {
		return nil, fmt.Errorf("commissions accruer required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		users:       params.Users,
		commissions: params.Commissions,
		audit:       params.Audit,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment")
	}
	return row, nil
}

func (s *service) ListPayments(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := listQuery{
		userID: params.UserID,
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		parsed, err := enums.ParsePaymentStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.status = parsed.String()
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	return &ListResult{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) CreatePayment(ctx context.Context, actor Actor, input CreateInput) (*models.Payment, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	total := decimal.Zero
	items := make([]models.PaymentItem, len(input.Items))
	for i, item := range input.Items {
		if item.PairID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item pair id is required")
		}
		period, err := enums.ParseSubscriptionPeriod(item.Period)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item period")
		}
		basePrice, err := decimal.NewFromString(strings.TrimSpace(item.BasePrice))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item base_price")
		}

		finalPrice := basePrice
		var discountRate *decimal.Decimal
		if item.DiscountRate != nil {
			rate, err := decimal.NewFromString(strings.TrimSpace(*item.DiscountRate))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item discount_rate")
			}
			if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_rate must be between 0 and 1")
			}
			discountRate = &rate
			finalPrice = basePrice.Mul(decimal.NewFromInt(1).Sub(rate)).Round(2)
		}

		items[i] = models.PaymentItem{
			PairID:       item.PairID,
			Period:       period,
			BasePrice:    basePrice,
			DiscountRate: discountRate,
			FinalPrice:   finalPrice,
		}
		total = total.Add(finalPrice)
	}

	row := &models.Payment{
		UserID:      user.ID,
		Status:      enums.PaymentStatusPending,
		TotalAmount: total,
		Currency:    currency,
		Items:       items,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment")
	}

	s.record(ctx, actor, "payment.create", &created.ID, nil, map[string]any{
		"user_id":      created.UserID,
		"total_amount": created.TotalAmount,
		"currency":     created.Currency,
		"items":        len(created.Items),
	})
	return created, nil
}

// UpdatePaymentStatus moves the payment through its lifecycle. Turning PAID
// stamps paid_at and accrues the affiliate commission; the accrual is
// best-effort relative to the status change.
func (s *service) UpdatePaymentStatus(ctx context.Context, actor Actor, id uuid.UUID, status string, actuallyPaid *string) (*models.Payment, error) {
	row, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := enums.ParsePaymentStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	if row.Status.IsTerminal() && next != row.Status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already finalized")
	}

	previous := row.Status
	row.Status = next

	if actuallyPaid != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*actuallyPaid))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actually_paid")
		}
		row.ActuallyPaid = &amount
	}

	if next == enums.PaymentStatusPaid && row.PaidAt == nil {
		paidAt := s.now().UTC()
		row.PaidAt = &paidAt
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment")
	}

	if next == enums.PaymentStatusPaid && previous != enums.PaymentStatusPaid {
		if err := s.commissions.AccrueForPayment(ctx, row); err != nil {
			s.logg.Error(ctx, "commission accrual failed", err)
		}
	}

	s.record(ctx, actor, "payment.update_status", &row.ID, map[string]any{"status": previous}, map[string]any{"status": next})
	return row, nil
}

func (s *service) UserStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	payments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	stats := ComputeStats(payments)
	return &stats, nil
}

// record is best-effort: a failed log write never fails the mutation.
func (s *service) record(ctx context.Context, actor Actor, action string, entityID *uuid.UUID, previous, next any) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "payment",
		EntityID:   entityID,
		Previous:   previous,
		Next:       next,
	})
	if err != nil {
		s.logg.Error(ctx, "payment audit write failed", err)
	}
}
