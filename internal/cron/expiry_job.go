package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/metrics"
)

const defaultSweepLimit = 500

// Scheduled transitions are attributed to this fixed actor in audit_logs.
var sweepActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sweepRepository interface {
	ListExpiredActive(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
	UpdateStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.SubscriptionStatus) error
}

// SubscriptionExpiryJobParams configure the expiry sweep.
type SubscriptionExpiryJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       sweepRepository
	Audit      auditlog.Recorder
	Metrics    *metrics.SubscriptionMetrics
	BatchLimit int
}

type subscriptionExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	repo    sweepRepository
	audit   auditlog.Recorder
	metrics *metrics.SubscriptionMetrics
	limit   int
	now     func() time.Time
}

// NewSubscriptionExpiryJob builds the job that moves ACTIVE subscriptions
// past their expiry date to EXPIRED.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	limit := params.BatchLimit
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	return &subscriptionExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		repo:    params.Repo,
		audit:   params.Audit,
		metrics: params.Metrics,
		limit:   limit,
		now:     time.Now,
	}, nil
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry-sweep" }

// Run sweeps in batches until no expired rows remain. A failed row is
// recorded and skipped so one bad subscription cannot stall the rest.
func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	var errs []error
	expired := 0

	for {
		rows, err := j.repo.ListExpiredActive(ctx, cutoff, j.limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("list expired subscriptions: %w", err))
			break
		}
		if len(rows) == 0 {
			break
		}

		failed := 0
		for i := range rows {
			if err := j.expire(ctx, &rows[i]); err != nil {
				errs = append(errs, fmt.Errorf("expire subscription %s: %w", rows[i].ID, err))
				failed++
				continue
			}
			expired++
		}

		// Failed rows stay ACTIVE and would be listed again immediately.
		if failed > 0 || len(rows) < j.limit {
			break
		}
	}

	logCtx := j.logg.WithField(ctx, "expired", expired)
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return multierr.Combine(errs...)
}

func (j *subscriptionExpiryJob) expire(ctx context.Context, row *models.Subscription) error {
	previous := row.Status
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.repo.UpdateStatusWithTx(tx, row.ID, enums.SubscriptionStatusExpired)
	})
	if err != nil {
		return err
	}

	if j.metrics != nil {
		j.metrics.IncTransition(previous.String(), enums.SubscriptionStatusExpired.String())
	}

	entityID := row.ID
	auditErr := j.audit.Record(ctx, auditlog.Entry{
		ActorID:    sweepActorID,
		ActorRole:  enums.UserRoleAdmin,
		Action:     "subscription.expire",
		EntityType: "subscription",
		EntityID:   &entityID,
		Previous:   map[string]any{"status": previous},
		Next:       map[string]any{"status": enums.SubscriptionStatusExpired},
	})
	if auditErr != nil {
		j.logg.Error(j.logg.WithField(ctx, "subscription_id", row.ID.String()), "audit write failed for expiry", auditErr)
	}
	return nil
}
