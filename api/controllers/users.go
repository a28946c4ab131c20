package controllers

import (
	"net/http"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/users"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type userListResponse struct {
	Items  []*userResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

// UsersGet serves single-fetch (?id=) and the paginated directory listing.
func UsersGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, single, err := parseQueryID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if single {
			row, err := svc.GetUser(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, userResponseFromModel(row))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListUsers(r.Context(), users.ListParams{
			Search: r.URL.Query().Get("search"),
			Role:   r.URL.Query().Get("role"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := userListResponse{Cursor: result.Cursor, Items: []*userResponse{}}
		for i := range result.Items {
			resp.Items = append(resp.Items, userResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
