package pairs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type listQuery struct {
	status string
	search string
	limit  int
	cursor *pagination.Cursor
}

// Repository exposes pair catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pair repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads one pair by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pair, error) {
	var row models.Pair
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIDs loads every pair matching the given ids. Missing ids are simply
// absent from the result; callers compare lengths.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pair, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Pair
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new pair row.
func (r *Repository) Create(ctx context.Context, row *models.Pair) (*models.Pair, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update persists the full pair row.
func (r *Repository) Update(ctx context.Context, row *models.Pair) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Delete removes a pair row by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Pair{}, "id = ?", id).Error
}

// List returns pairs using cursor pagination with optional status filter and
// free-text search across symbol, timeframe, and version.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]models.Pair, error) {
	query := r.db.WithContext(ctx).Model(&models.Pair{})
	if opts.status != "" {
		query = query.Where("status = ?", opts.status)
	}
	if opts.search != "" {
		like := "%" + opts.search + "%"
		query = query.Where("symbol LIKE ? OR timeframe LIKE ? OR version LIKE ?", like, like, like)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Pair
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
