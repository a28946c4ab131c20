package commissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type listQuery struct {
	affiliateID uuid.UUID
	status      string
	limit       int
	cursor      *pagination.Cursor
}

// Repository exposes affiliate and commission persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a commissions repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindAffiliateByOwner loads the affiliate record owned by the given user.
func (r *Repository) FindAffiliateByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Affiliate, error) {
	var row models.Affiliate
	if err := r.db.WithContext(ctx).First(&row, "owner_user_id = ?", ownerUserID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateCommission inserts one commission row. The payment_id unique index
// makes accrual idempotent per payment.
func (r *Repository) CreateCommission(ctx context.Context, row *models.Commission) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FindCommissionByID loads one commission.
func (r *Repository) FindCommissionByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	var row models.Commission
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateCommission persists the full commission row.
func (r *Repository) UpdateCommission(ctx context.Context, row *models.Commission) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// ListCommissions returns an affiliate's commissions using cursor pagination.
func (r *Repository) ListCommissions(ctx context.Context, opts listQuery) ([]models.Commission, error) {
	query := r.db.WithContext(ctx).Model(&models.Commission{}).
		Where("affiliate_id = ?", opts.affiliateID)
	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Commission
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByStatus totals an affiliate's commission amounts per status.
func (r *Repository) SumByStatus(ctx context.Context, affiliateID uuid.UUID, status string) (string, error) {
	var total *string
	err := r.db.WithContext(ctx).Model(&models.Commission{}).
		Select("SUM(amount)").
		Where("affiliate_id = ? AND status = ?", affiliateID, status).
		Scan(&total).Error
	if err != nil {
		return "0", err
	}
	if total == nil {
		return "0", nil
	}
	return *total, nil
}
