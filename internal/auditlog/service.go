package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

// Actor identifies who performs a mutation; the role decides which sink
// records it.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// Entry describes one recorded mutation, regardless of which sink it lands in.
type Entry struct {
	ActorID    uuid.UUID
	ActorRole  enums.UserRole
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Previous   any
	Next       any
}

// Recorder is the write-only surface other services depend on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type repository interface {
	CreateAuditLog(ctx context.Context, row *models.AuditLog) error
	CreateEvent(ctx context.Context, row *models.Event) error
	ListAuditLogs(ctx context.Context, opts listQuery) ([]models.AuditLog, error)
	ListEvents(ctx context.Context, opts listQuery) ([]models.Event, error)
}

// ListParams hold filters for the admin console listing endpoints.
type ListParams struct {
	ActorID    string
	EntityType string
	Limit      int
	Cursor     string
}

// AuditLogList is one page of audit rows.
type AuditLogList struct {
	Items  []models.AuditLog
	Cursor string
}

// EventList is one page of event rows.
type EventList struct {
	Items  []models.Event
	Cursor string
}

// Service routes mutations to the correct immutable sink and serves the
// admin console listings.
type Service interface {
	Recorder
	ListAuditLogs(ctx context.Context, params ListParams) (*AuditLogList, error)
	ListEvents(ctx context.Context, params ListParams) (*EventList, error)
}

type service struct {
	repo repository
}

// NewService builds the audit log service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auditlog repository required")
	}
	return &service{repo: repo}, nil
}

// Record writes the entry to exactly one sink: USER actors land in the
// events table, every staff role in audit_logs. This is the only place the
// role comparison happens.
func (s *service) Record(ctx context.Context, entry Entry) error {
	if entry.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity type is required")
	}

	if entry.ActorRole == enums.UserRoleUser {
		payload, err := marshalEventPayload(entry.Previous, entry.Next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal event payload")
		}
		row := &models.Event{
			UserID:     entry.ActorID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Payload:    payload,
		}
		if err := s.repo.CreateEvent(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}
		return nil
	}

	previous, err := marshalSnapshot(entry.Previous)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal previous snapshot")
	}
	next, err := marshalSnapshot(entry.Next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal next snapshot")
	}

	row := &models.AuditLog{
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Previous:   previous,
		Next:       next,
	}
	if err := s.repo.CreateAuditLog(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create audit log")
	}
	return nil
}

func (s *service) ListAuditLogs(ctx context.Context, params ListParams) (*AuditLogList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query, err := buildListQuery(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAuditLogs(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	return &AuditLogList{Items: rows, Cursor: nextCursor}, nil
}

func (s *service) ListEvents(ctx context.Context, params ListParams) (*EventList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query, err := buildListQuery(params)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListEvents(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	return &EventList{Items: rows, Cursor: nextCursor}, nil
}

func buildListQuery(params ListParams) (listQuery, error) {
	query := listQuery{
		actorID:    strings.TrimSpace(params.ActorID),
		entityType: strings.TrimSpace(params.EntityType),
		limit:      pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}
	return query, nil
}

func marshalSnapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func marshalEventPayload(previous, next any) (json.RawMessage, error) {
	if previous == nil && next == nil {
		return nil, nil
	}
	return json.Marshal(map[string]any{
		"previous": previous,
		"next":     next,
	})
}
