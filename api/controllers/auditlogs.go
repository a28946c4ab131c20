package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type auditLogResponse struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    uuid.UUID       `json:"actorId"`
	ActorRole  enums.UserRole  `json:"actorRole"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   *uuid.UUID      `json:"entityId"`
	Previous   json.RawMessage `json:"previous,omitempty"`
	Next       json.RawMessage `json:"next,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type auditLogListResponse struct {
	Items  []auditLogResponse `json:"items"`
	Cursor string             `json:"cursor,omitempty"`
}

type eventResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   *uuid.UUID      `json:"entityId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type eventListResponse struct {
	Items  []eventResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

func auditListParams(r *http.Request) (auditlog.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return auditlog.ListParams{}, err
	}
	return auditlog.ListParams{
		ActorID:    r.URL.Query().Get("actorId"),
		EntityType: r.URL.Query().Get("entityType"),
		Limit:      limit,
		Cursor:     r.URL.Query().Get("cursor"),
	}, nil
}

// AuditLogsList serves the staff mutation trail for the admin console.
func AuditLogsList(svc auditlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := auditListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListAuditLogs(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := auditLogListResponse{Cursor: result.Cursor, Items: []auditLogResponse{}}
		for _, row := range result.Items {
			resp.Items = append(resp.Items, auditLogResponse{
				ID:         row.ID,
				ActorID:    row.ActorID,
				ActorRole:  row.ActorRole,
				Action:     row.Action,
				EntityType: row.EntityType,
				EntityID:   row.EntityID,
				Previous:   row.Previous,
				Next:       row.Next,
				CreatedAt:  row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

// EventsList serves the user action trail for the admin console.
func EventsList(svc auditlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := auditListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListEvents(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := eventListResponse{Cursor: result.Cursor, Items: []eventResponse{}}
		for _, row := range result.Items {
			resp.Items = append(resp.Items, eventResponse{
				ID:         row.ID,
				UserID:     row.UserID,
				Action:     row.Action,
				EntityType: row.EntityType,
				EntityID:   row.EntityID,
				Payload:    row.Payload,
				CreatedAt:  row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}
