package commissions

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
	"github.com/tradepulse/tradepulse-backend/pkg/db"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

// Actor aliases the audit log actor.
type Actor = auditlog.Actor

type commissionsRepository interface {
	FindAffiliateByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Affiliate, error)
	CreateCommission(ctx context.Context, row *models.Commission) error
	FindCommissionByID(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	UpdateCommission(ctx context.Context, row *models.Commission) error
	ListCommissions(ctx context.Context, opts listQuery) ([]models.Commission, error)
	SumByStatus(ctx context.Context, affiliateID uuid.UUID, status string) (string, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ListParams hold commission listing filters.
type ListParams struct {
	AffiliateID uuid.UUID
	Status      string
	Limit       int
	Cursor      string
}

// ListResult is one page of commissions plus the affiliate's running totals.
type ListResult struct {
	Items        []models.Commission
	Cursor       string
	PendingTotal decimal.Decimal
	PaidTotal    decimal.Decimal
}

// Service accrues and pays out affiliate commissions. A commission's
// lifecycle is independent of the subscription it was earned from.
type Service interface {
	AccrueForPayment(ctx context.Context, payment *models.Payment) error
	MarkPaid(ctx context.Context, actor Actor, commissionID uuid.UUID) (*models.Commission, error)
	GetAffiliateForOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Affiliate, error)
	ListForAffiliate(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo  commissionsRepository
	users userDirectory
	audit auditlog.Recorder
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the commissions service.
func NewService(repo commissionsRepository, users userDirectory, audit auditlog.Recorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commissions repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:  repo,
		users: users,
		audit: audit,
		logg:  logg,
		now:   time.Now,
	}, nil
}

// AccrueForPayment creates one PENDING commission when a paid payment's
// payer was referred. The rate is snapshotted at accrual time. Re-running
// for the same payment is a no-op.
func (s *service) AccrueForPayment(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment is required")
	}
	if payment.Status != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "commission accrues on paid payments only")
	}

	payer, err := s.users.FindByID(ctx, payment.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payer")
	}
	if payer.ReferredByID == nil {
		return nil
	}

	affiliate, err := s.repo.FindAffiliateByOwner(ctx, *payer.ReferredByID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup affiliate")
	}
	if affiliate.Disabled {
		return nil
	}

	paid := payment.TotalAmount
	if payment.ActuallyPaid != nil {
		paid = *payment.ActuallyPaid
	}
	amount := paid.Mul(affiliate.CommissionRate).Round(2)

	row := &models.Commission{
		AffiliateID: affiliate.ID,
		PaymentID:   payment.ID,
		Amount:      amount,
		Rate:        affiliate.CommissionRate,
		Status:      enums.CommissionStatusPending,
	}
	if err := s.repo.CreateCommission(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			s.logg.Info(ctx, "commission already accrued for payment; skipping")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission")
	}
	return nil
}

// MarkPaid finalizes a pending commission. PAID is terminal.
func (s *service) MarkPaid(ctx context.Context, actor Actor, commissionID uuid.UUID) (*models.Commission, error) {
	if commissionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission id is required")
	}

	row, err := s.repo.FindCommissionByID(ctx, commissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup commission")
	}
	if row.Status == enums.CommissionStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "commission already paid")
	}

	paidAt := s.now().UTC()
	row.Status = enums.CommissionStatusPaid
	row.PaidAt = &paidAt

	if err := s.repo.UpdateCommission(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update commission")
	}

	s.record(ctx, actor, "commission.payout", &row.ID, map[string]any{"status": enums.CommissionStatusPending}, map[string]any{
		"status":  enums.CommissionStatusPaid,
		"paid_at": paidAt,
		"amount":  row.Amount,
	})
	return row, nil
}

func (s *service) GetAffiliateForOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Affiliate, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id is required")
	}
	row, err := s.repo.FindAffiliateByOwner(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup affiliate")
	}
	return row, nil
}

func (s *service) ListForAffiliate(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.AffiliateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate id is required")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := listQuery{
		affiliateID: params.AffiliateID,
		limit:       pagination.LimitWithBuffer(params.Limit),
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		parsed, err := enums.ParseCommissionStatus(status)
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

	rows, err := s.repo.ListCommissions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commissions")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	pending, err := s.sum(ctx, params.AffiliateID, enums.CommissionStatusPending)
	if err != nil {
		return nil, err
	}
	paid, err := s.sum(ctx, params.AffiliateID, enums.CommissionStatusPaid)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items:        rows,
		Cursor:       nextCursor,
		PendingTotal: pending,
		PaidTotal:    paid,
	}, nil
}

func (s *service) sum(ctx context.Context, affiliateID uuid.UUID, status enums.CommissionStatus) (decimal.Decimal, error) {
	raw, err := s.repo.SumByStatus(ctx, affiliateID, status.String())
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum commissions")
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse commission total")
	}
	return total, nil
}

// record is best-effort: a failed audit write never fails the payout.
func (s *service) record(ctx context.Context, actor Actor, action string, entityID *uuid.UUID, previous, next any) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "commission",
		EntityID:   entityID,
		Previous:   previous,
		Next:       next,
	})
	if err != nil {
		s.logg.Error(ctx, "commission audit write failed", err)
	}
}
