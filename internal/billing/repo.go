package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type listQuery struct {
	userID uuid.UUID
	status string
	limit  int
	cursor *pagination.Cursor
}

// Repository exposes payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	Create(ctx context.Context, row *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, row *models.Payment) error
	List(ctx context.Context, opts listQuery) ([]models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// FindByID loads one payment with its items and linked subscriptions.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var row models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Subscriptions").
		First(&row, "payments.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a payment and its items in one statement graph.
func (r *repository) Create(ctx context.Context, row *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update persists the payment row without touching associations.
func (r *repository) Update(ctx context.Context, row *models.Payment) error {
	return r.db.WithContext(ctx).Omit("Items", "Subscriptions").Save(row).Error
}

// List returns payments using cursor pagination, newest first.
func (r *repository) List(ctx context.Context, opts listQuery) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Preload("Items")
	if opts.userID != uuid.Nil {
		query = query.Where("user_id = ?", opts.userID)
	}
	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Payment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUser loads every payment for the user with linked subscriptions,
// which is what the stats fold consumes.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Subscriptions").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
