package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tradepulse/tradepulse-backend/api/middleware"
	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
)

// actorFromRequest rebuilds the acting identity from the authenticated
// request context.
func actorFromRequest(r *http.Request) (auditlog.Actor, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return auditlog.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return auditlog.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return auditlog.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return auditlog.Actor{ID: id, Role: role}, nil
}

// parseQueryID reads an optional uuid query parameter.
func parseQueryID(r *http.Request, key string) (uuid.UUID, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, true, nil
}
