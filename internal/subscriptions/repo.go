package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type listQuery struct {
	userID uuid.UUID
	status string
	search string
	limit  int
	cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a subscription repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// FindByID loads one subscription with its user and pair relations.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var row models.Subscription
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Pair").
		First(&row, "subscriptions.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateBatch inserts all rows in one statement.
func (r *repository) CreateBatch(ctx context.Context, rows []*models.Subscription) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// Update persists the full subscription row.
func (r *repository) Update(ctx context.Context, row *models.Subscription) error {
	return r.db.WithContext(ctx).Omit("User", "Pair").Save(row).Error
}

// Delete hard-deletes the subscription; dependent rows cascade via FK policy.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id).Error
}

// List returns subscriptions using cursor pagination. Search spans the
// owning user's email/name and the pair's symbol/timeframe/version/status.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Subscription, error) {
	query := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Preload("User").
		Preload("Pair")

	if opts.userID != uuid.Nil {
		query = query.Where("subscriptions.user_id = ?", opts.userID)
	}
	if opts.status != "" {
		query = query.Where("subscriptions.status = ?", opts.status)
	}
	if opts.search != "" {
		like := "%" + opts.search + "%"
		query = query.
			Joins("JOIN users ON users.id = subscriptions.user_id").
			Joins("JOIN pairs ON pairs.id = subscriptions.pair_id").
			Where(
				"users.email LIKE ? OR users.name LIKE ? OR pairs.symbol LIKE ? OR pairs.timeframe LIKE ? OR pairs.version LIKE ? OR pairs.status LIKE ?",
				like, like, like, like, like, like,
			)
	}
	if opts.cursor != nil {
		query = query.Where(
			"(subscriptions.created_at < ?) OR (subscriptions.created_at = ? AND subscriptions.id < ?)",
			opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID,
		)
	}
	query = query.Order("subscriptions.created_at DESC").Order("subscriptions.id DESC").Limit(opts.limit)

	var rows []models.Subscription
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindActiveByUserAndPairs returns the user's ACTIVE subscriptions for any of
// the given pairs, with the pair preloaded so callers can name symbols.
func (r *repository) FindActiveByUserAndPairs(ctx context.Context, userID uuid.UUID, pairIDs []uuid.UUID) ([]models.Subscription, error) {
	if len(pairIDs) == 0 {
		return nil, nil
	}
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Pair").
		Where("user_id = ? AND pair_id IN ? AND status = ?", userID, pairIDs, enums.SubscriptionStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusWithTx flips one subscription's status inside the caller's
// transaction.
func (r *repository) UpdateStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.SubscriptionStatus) error {
	return tx.Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListExpiredActive returns ACTIVE subscriptions whose expiry date has passed.
func (r *repository) ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", enums.SubscriptionStatusActive, cutoff).
		Order("expiry_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Subscription
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
