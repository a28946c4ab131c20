package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Repository exposes subscription persistence. WithTx returns a repository
// bound to the provided transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	CreateBatch(ctx context.Context, rows []*models.Subscription) error
	Update(ctx context.Context, row *models.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, opts listQuery) ([]models.Subscription, error)
	FindActiveByUserAndPairs(ctx context.Context, userID uuid.UUID, pairIDs []uuid.UUID) ([]models.Subscription, error)
	UpdateStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.SubscriptionStatus) error
	ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type pairCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pair, error)
}
