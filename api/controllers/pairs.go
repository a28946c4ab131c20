package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/pairs"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type pairCreateRequest struct {
	Symbol       string  `json:"symbol" validate:"required"`
	Timeframe    string  `json:"timeframe" validate:"required"`
	Version      string  `json:"version" validate:"required"`
	BasePrice    string  `json:"basePrice" validate:"required"`
	DiscountRate *string `json:"discountRate"`
}

type pairUpdateRequest struct {
	ID           string  `json:"id" validate:"required"`
	Status       *string `json:"status"`
	BasePrice    *string `json:"basePrice"`
	DiscountRate *string `json:"discountRate"`
}

type pairResponse struct {
	ID           uuid.UUID        `json:"id"`
	Symbol       string           `json:"symbol"`
	Timeframe    string           `json:"timeframe"`
	Version      string           `json:"version"`
	Status       enums.PairStatus `json:"status"`
	BasePrice    decimal.Decimal  `json:"basePrice"`
	DiscountRate *decimal.Decimal `json:"discountRate"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func pairResponseFromModel(m *models.Pair) pairResponse {
	return pairResponse{
		ID:           m.ID,
		Symbol:       m.Symbol,
		Timeframe:    m.Timeframe,
		Version:      m.Version,
		Status:       m.Status,
		BasePrice:    m.BasePrice,
		DiscountRate: m.DiscountRate,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type pairListResponse struct {
	Items  []pairResponse `json:"items"`
	Cursor string         `json:"cursor,omitempty"`
}

func parseDecimalField(raw string, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return value, nil
}

// PairsGet serves single-fetch (?id=) and the paginated catalog listing.
func PairsGet(svc pairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, single, err := parseQueryID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if single {
			row, err := svc.GetPair(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, pairResponseFromModel(row))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListPairs(r.Context(), pairs.ListParams{
			Status: r.URL.Query().Get("status"),
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := pairListResponse{Cursor: result.Cursor, Items: []pairResponse{}}
		for i := range result.Items {
			resp.Items = append(resp.Items, pairResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// PairsCreate adds a catalog entry.
func PairsCreate(svc pairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pairCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		basePrice, err := parseDecimalField(payload.BasePrice, "basePrice")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := pairs.CreateInput{
			Symbol:    payload.Symbol,
			Timeframe: payload.Timeframe,
			Version:   payload.Version,
			BasePrice: basePrice,
		}
		if payload.DiscountRate != nil {
			rate, err := parseDecimalField(*payload.DiscountRate, "discountRate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountRate = &rate
		}

		created, err := svc.CreatePair(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pairResponseFromModel(created))
	}
}

// PairsUpdate applies a partial catalog update.
func PairsUpdate(svc pairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pairUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(payload.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		input := pairs.UpdateInput{Status: payload.Status}
		if payload.BasePrice != nil {
			price, err := parseDecimalField(*payload.BasePrice, "basePrice")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.BasePrice = &price
		}
		if payload.DiscountRate != nil {
			rate, err := parseDecimalField(*payload.DiscountRate, "discountRate")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountRate = &rate
		}

		updated, err := svc.UpdatePair(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pairResponseFromModel(updated))
	}
}

// PairsDelete removes the catalog entry named by ?id=.
func PairsDelete(svc pairs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, ok, err := parseQueryID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "id is required"))
			return
		}

		if err := svc.DeletePair(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
