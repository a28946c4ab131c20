package pairs

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const pairUniqueConstraint = "idx_pairs_symbol_timeframe_version"

type pairsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pair, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Pair, error)
	Create(ctx context.Context, row *models.Pair) (*models.Pair, error)
	Update(ctx context.Context, row *models.Pair) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, opts listQuery) ([]models.Pair, error)
}

// Actor aliases the audit log actor; admin mutations carry one.
type Actor = auditlog.Actor

// CreateInput holds the fields for a new catalog entry.
type CreateInput struct {
	Symbol       string
	Timeframe    string
	Version      string
	BasePrice    decimal.Decimal
	DiscountRate *decimal.Decimal
}

// UpdateInput holds the optional fields of a pair update.
type UpdateInput struct {
	Status       *string
	BasePrice    *decimal.Decimal
	DiscountRate *decimal.Decimal
}

// ListParams hold filters for the pair listing.
type ListParams struct {
	Status string
	Search string
	Limit  int
	Cursor string
}

// ListResult is one page of pairs.
type ListResult struct {
	Items  []models.Pair
	Cursor string
}

// Service exposes the pair catalog: lookups for the subscription flow and
// CRUD for the admin console.
type Service interface {
	GetPair(ctx context.Context, id uuid.UUID) (*models.Pair, error)
	ListPairs(ctx context.Context, params ListParams) (*ListResult, error)
	CreatePair(ctx context.Context, actor Actor, input CreateInput) (*models.Pair, error)
	UpdatePair(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*models.Pair, error)
	DeletePair(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo  pairsRepository
	audit auditlog.Recorder
	logg  *logger.Logger
}

// NewService builds the pair catalog service.
func NewService(repo pairsRepository, audit auditlog.Recorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pairs repository required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, audit: audit, logg: logg}, nil
}

func (s *service) GetPair(ctx context.Context, id uuid.UUID) (*models.Pair, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pair id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pair not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pair")
	}
	return row, nil
}

func (s *service) ListPairs(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := listQuery{
		search: strings.TrimSpace(params.Search),
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if status := strings.TrimSpace(params.Status); status != "" {
		parsed, err := enums.ParsePairStatus(status)
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pairs")
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

func (s *service) CreatePair(ctx context.Context, actor Actor, input CreateInput) (*models.Pair, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	timeframe := strings.TrimSpace(input.Timeframe)
	version := strings.TrimSpace(input.Version)
	if symbol == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "symbol is required")
	}
	if timeframe == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timeframe is required")
	}
	if version == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "version is required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price must not be negative")
	}

	row := &models.Pair{
		Symbol:       symbol,
		Timeframe:    timeframe,
		Version:      version,
		Status:       enums.PairStatusActive,
		BasePrice:    input.BasePrice,
		DiscountRate: input.DiscountRate,
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		if db.IsUniqueViolation(err, pairUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "pair already exists for symbol/timeframe/version")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pair")
	}

	s.record(ctx, actor, "pair.create", &created.ID, nil, created)
	return created, nil
}

func (s *service) UpdatePair(ctx context.Context, actor Actor, id uuid.UUID, input UpdateInput) (*models.Pair, error) {
	row, err := s.GetPair(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *row

	if input.Status != nil {
		status, err := enums.ParsePairStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		row.Status = status
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base_price must not be negative")
		}
		row.BasePrice = *input.BasePrice
	}
	if input.DiscountRate != nil {
		row.DiscountRate = input.DiscountRate
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pair")
	}

	s.record(ctx, actor, "pair.update", &row.ID, previous, row)
	return row, nil
}

func (s *service) DeletePair(ctx context.Context, actor Actor, id uuid.UUID) error {
	row, err := s.GetPair(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pair")
	}

	s.record(ctx, actor, "pair.delete", &id, row, nil)
	return nil
}

// record is best-effort: a failed audit write never fails the mutation.
func (s *service) record(ctx context.Context, actor Actor, action string, entityID *uuid.UUID, previous, next any) {
	err := s.audit.Record(ctx, auditlog.Entry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "pair",
		EntityID:   entityID,
		Previous:   previous,
		Next:       next,
	})
	if err != nil {
		s.logg.Error(ctx, "pair audit write failed", err)
	}
}
