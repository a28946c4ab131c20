package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/internal/notifications"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/metrics"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

// Actor aliases the audit log actor; every mutation carries one.
type Actor = auditlog.Actor

// UpdateInput is the canonical partial update after boundary normalization
// (the legacy invite_state alias is resolved before this struct is built).
type UpdateInput struct {
	Status       *string
	InviteStatus *string
	Period       *string
	StartDate    *time.Time
	ExpiryDate   *time.Time
	BasePrice    *string
	DiscountRate *string
}

// CreatePairInput is one pair line in a creation batch.
type CreatePairInput struct {
	PairID       uuid.UUID
	Period       string
	ExpiryDate   *time.Time
	BasePrice    *string
	DiscountRate *string
}

// CreateInput is the multi-pair creation payload. The legacy single-pair
// shape maps onto a one-element batch.
type CreateInput struct {
	UserID    uuid.UUID
	StartDate *time.Time
	Pairs     []CreatePairInput
}

// ListParams hold listing filters.
type ListParams struct {
	UserID uuid.UUID
	Status string
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of subscriptions.
type ListResult struct {
	Items  []models.Subscription
	Cursor string
}

// Service owns the subscription lifecycle.
type Service interface {
	GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, params ListParams) (*ListResult, error)
	CreateSubscriptions(ctx context.Context, actor Actor, input CreateInput) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, actor Actor, id uuid.UUID) error
}

// ServiceParams configure the subscription service.
type ServiceParams struct {
	Repo    Repository
	Users   userDirectory
	Pairs   pairCatalog
	Tx      txRunner
	Audit   auditlog.Recorder
	Mailer  notifications.Sender
	Metrics *metrics.SubscriptionMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	users   userDirectory
	pairs   pairCatalog
	tx      txRunner
	audit   auditlog.Recorder
	mailer  notifications.Sender
	metrics *metrics.SubscriptionMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the subscription lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Pairs == nil {
		return nil, fmt.Errorf("pair catalog required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		pairs:   params.Pairs,
		tx:      params.Tx,
		audit:   params.Audit,
		mailer:  params.Mailer,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	return row, nil
}

func (s *service) ListSubscriptions(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := listQuery{
		userID: params.UserID,
		search: strings.TrimSpace(params.Search),
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		parsed, err := enums.ParseSubscriptionStatus(status)
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
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

// UpdateSubscription applies a partial update. Completing the invite stamps
// the start date from the server clock and derives the expiry from the
// resolved period; client-supplied dates are ignored on that path.
func (s *service) UpdateSubscription(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*models.Subscription, error) {
	row, err := s.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := snapshot(row)
	previousStatus := row.Status

	if input.Status != nil {
		status, err := enums.ParseSubscriptionStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		row.Status = status
	}

	completing := false
	if input.InviteStatus != nil {
		inviteStatus, err := enums.ParseInviteStatus(*input.InviteStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invite status")
		}
		row.InviteStatus = inviteStatus
		completing = inviteStatus == enums.InviteStatusCompleted
	}

	if input.Period != nil {
		period, err := enums.ParseSubscriptionPeriod(*input.Period)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
		}
		row.Period = period
	}

	if completing {
		start := s.now().UTC()
		row.StartDate = &start
		if offset := row.Period.Months(); offset > 0 {
			expiry := start.AddDate(0, offset, 0)
			row.ExpiryDate = &expiry
		}
	} else {
		if input.StartDate != nil {
			row.StartDate = input.StartDate
		}
		if input.ExpiryDate != nil {
			row.ExpiryDate = input.ExpiryDate
		}
	}

	if input.BasePrice != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*input.BasePrice))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price")
		}
		row.BasePrice = &price
	}
	if input.DiscountRate != nil {
		rate, err := decimal.NewFromString(strings.TrimSpace(*input.DiscountRate))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_rate")
		}
		row.DiscountRate = &rate
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.recordFailure(ctx, actor, "subscription.update", &row.ID, err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update subscription")
	}

	if s.metrics != nil && previousStatus != row.Status {
		s.metrics.IncTransition(previousStatus.String(), row.Status.String())
	}

	s.record(ctx, actor, "subscription.update", &row.ID, previous, snapshot(row))
	s.notifyInvite(ctx, row)
	return row, nil
}

// CreateSubscriptions creates the whole batch atomically: every row or none.
func (s *service) CreateSubscriptions(ctx context.Context, actor Actor, input CreateInput) ([]models.Subscription, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.Pairs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one pair is required")
	}

	periods := make([]enums.SubscriptionPeriod, len(input.Pairs))
	pairIDs := make([]uuid.UUID, len(input.Pairs))
	for i, item := range input.Pairs {
		if item.PairID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pair id is required")
		}
		period, err := enums.ParseSubscriptionPeriod(item.Period)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period")
		}
		periods[i] = period
		pairIDs[i] = item.PairID
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	foundPairs, err := s.pairs.FindByIDs(ctx, pairIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pairs")
	}
	if len(foundPairs) < len(uniqueIDs(pairIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pair not found")
	}

	rows := make([]*models.Subscription, len(input.Pairs))
	for i, item := range input.Pairs {
		row := &models.Subscription{
			UserID:       user.ID,
			PairID:       item.PairID,
			Status:       enums.SubscriptionStatusPending,
			InviteStatus: enums.InviteStatusPending,
			Period:       periods[i],
			StartDate:    input.StartDate,
			ExpiryDate:   item.ExpiryDate,
		}
		if item.BasePrice != nil {
			price, err := decimal.NewFromString(strings.TrimSpace(*item.BasePrice))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base_price")
			}
			row.BasePrice = &price
		}
		if item.DiscountRate != nil {
			rate, err := decimal.NewFromString(strings.TrimSpace(*item.DiscountRate))
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount_rate")
			}
			row.DiscountRate = &rate
		}
		rows[i] = row
	}

	// The existence check above and the insert below are not serialized
	// against concurrent requests; the re-check inside the transaction
	// narrows the window without fully closing it.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		conflicts, err := txRepo.FindActiveByUserAndPairs(ctx, user.ID, pairIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscriptions")
		}
		if len(conflicts) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already has an active subscription for: "+conflictSymbols(conflicts)).
				WithDetails(map[string]any{"symbols": strings.Split(conflictSymbols(conflicts), ", ")})
		}
		if err := txRepo.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscriptions")
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, actor, "subscription.create", nil, err)
		return nil, err
	}

	batch := make([]map[string]any, len(rows))
	created := make([]models.Subscription, len(rows))
	for i, row := range rows {
		batch[i] = map[string]any{
			"subscription_id": row.ID,
			"pair_id":         row.PairID,
			"period":          row.Period,
		}
		created[i] = *row
	}
	s.record(ctx, actor, "subscription.create", nil, nil, map[string]any{
		"user_id": user.ID,
		"count":   len(rows),
		"pairs":   batch,
	})
	return created, nil
}

// DeleteSubscription hard-deletes after snapshotting the identifying fields
// into the audit entry; they are unrecoverable once the row is gone.
func (s *service) DeleteSubscription(ctx context.Context, actor Actor, id uuid.UUID) error {
	row, err := s.GetSubscription(ctx, id)
	if err != nil {
		return err
	}
	previous := snapshot(row)

	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordFailure(ctx, actor, "subscription.delete", &id, err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete subscription")
	}

	s.record(ctx, actor, "subscription.delete", &id, previous, nil)
	return nil
}

// record is best-effort: a failed audit write never rolls back the mutation.
func (s *service) record(ctx context.Context, actor Actor, action string, entityID *uuid.UUID, previous, next any) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "subscription",
		EntityID:   entityID,
		Previous:   previous,
		Next:       next,
	})
	if err != nil {
		s.logg.Error(ctx, "subscription audit write failed", err)
	}
}

func (s *service) recordFailure(ctx context.Context, actor Actor, action string, entityID *uuid.UUID, cause error) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action + ".failed",
		EntityType: "subscription",
		EntityID:   entityID,
		Next:       map[string]any{"reason": cause.Error()},
	})
	if err != nil {
		s.logg.Error(ctx, "subscription failure audit write failed", err)
	}
}

// notifyInvite sends exactly one email keyed by the subscription's current
// invite status. Delivery failures are logged and swallowed.
func (s *service) notifyInvite(ctx context.Context, row *models.Subscription) {
	to := ""
	if row.User != nil {
		to = row.User.Email
	}
	if to == "" {
		s.logg.Warn(ctx, "subscription has no user email; skipping notification")
		return
	}

	params := map[string]string{
		"subscription_id": row.ID.String(),
		"invite_status":   row.InviteStatus.String(),
	}
	if row.Pair != nil {
		params["symbol"] = row.Pair.Symbol
	}
	if row.ExpiryDate != nil {
		params["expiry_date"] = row.ExpiryDate.UTC().Format(time.RFC3339)
	}

	err := s.mailer.Send(ctx, notifications.Email{
		Template: enums.TemplateForInviteStatus(row.InviteStatus),
		To:       to,
		Params:   params,
	})
	if err != nil {
		s.logg.Error(ctx, "subscription notification send failed", err)
	}
}

func snapshot(row *models.Subscription) map[string]any {
	return map[string]any{
		"id":            row.ID,
		"user_id":       row.UserID,
		"pair_id":       row.PairID,
		"payment_id":    row.PaymentID,
		"status":        row.Status,
		"invite_status": row.InviteStatus,
		"period":        row.Period,
		"start_date":    row.StartDate,
		"expiry_date":   row.ExpiryDate,
		"base_price":    row.BasePrice,
		"discount_rate": row.DiscountRate,
	}
}

func conflictSymbols(rows []models.Subscription) string {
	seen := map[string]bool{}
	symbols := []string{}
	for _, row := range rows {
		symbol := row.PairID.String()
		if row.Pair != nil {
			symbol = row.Pair.Symbol
		}
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)
	return strings.Join(symbols, ", ")
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
