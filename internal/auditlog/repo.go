package auditlog

import (
	"context"

	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type listQuery struct {
	actorID    string
	entityType string
	limit      int
	cursor     *pagination.Cursor
}

// Repository persists append-only audit and event rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit log repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateAuditLog inserts one staff-actor audit row.
func (r *Repository) CreateAuditLog(ctx context.Context, row *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// CreateEvent inserts one user-actor event row.
func (r *Repository) CreateEvent(ctx context.Context, row *models.Event) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// ListAuditLogs returns audit rows using cursor pagination, newest first.
func (r *Repository) ListAuditLogs(ctx context.Context, opts listQuery) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if opts.actorID != "" {
		query = query.Where("actor_id = ?", opts.actorID)
	}
	if opts.entityType != "" {
		query = query.Where("entity_type = ?", opts.entityType)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.AuditLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListEvents returns event rows using cursor pagination, newest first.
func (r *Repository) ListEvents(ctx context.Context, opts listQuery) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})
	if opts.actorID != "" {
		query = query.Where("user_id = ?", opts.actorID)
	}
	if opts.entityType != "" {
		query = query.Where("entity_type = ?", opts.entityType)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
