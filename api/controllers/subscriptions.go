package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/subscriptions"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type subscriptionPairRequest struct {
	PairID       string     `json:"pairId" validate:"required"`
	Period       string     `json:"period" validate:"required"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	BasePrice    *string    `json:"basePrice"`
	DiscountRate *string    `json:"discountRate"`
}

// subscriptionCreateRequest accepts both the multi-pair batch shape and the
// legacy single-pair shape; the legacy fields map onto a one-element batch.
type subscriptionCreateRequest struct {
	UserID       string                    `json:"userId" validate:"required"`
	StartDate    *time.Time                `json:"startDate"`
	Pairs        []subscriptionPairRequest `json:"pairs"`
	PairID       *string                   `json:"pairId"`
	Period       *string                   `json:"period"`
	ExpiryDate   *time.Time                `json:"expiryDate"`
	BasePrice    *string                   `json:"basePrice"`
	DiscountRate *string                   `json:"discountRate"`
}

func (req subscriptionCreateRequest) toInput() (subscriptions.CreateInput, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return subscriptions.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId")
	}

	pairReqs := req.Pairs
	if len(pairReqs) == 0 && req.PairID != nil {
		period := ""
		if req.Period != nil {
			period = *req.Period
		}
		pairReqs = []subscriptionPairRequest{{
			PairID:       *req.PairID,
			Period:       period,
			ExpiryDate:   req.ExpiryDate,
			BasePrice:    req.BasePrice,
			DiscountRate: req.DiscountRate,
		}}
	}

	input := subscriptions.CreateInput{UserID: userID, StartDate: req.StartDate}
	for _, pairReq := range pairReqs {
		pairID, err := uuid.Parse(pairReq.PairID)
		if err != nil {
			return subscriptions.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pairId")
		}
		input.Pairs = append(input.Pairs, subscriptions.CreatePairInput{
			PairID:       pairID,
			Period:       pairReq.Period,
			ExpiryDate:   pairReq.ExpiryDate,
			BasePrice:    pairReq.BasePrice,
			DiscountRate: pairReq.DiscountRate,
		})
	}
	return input, nil
}

type subscriptionUpdateRequest struct {
	ID           string     `json:"id" validate:"required"`
	Status       *string    `json:"status"`
	InviteStatus *string    `json:"inviteStatus"`
	InviteState  *string    `json:"inviteState"`
	Period       *string    `json:"period"`
	StartDate    *time.Time `json:"startDate"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	BasePrice    *string    `json:"basePrice"`
	DiscountRate *string    `json:"discountRate"`
}

type subscriptionResponse struct {
	ID           uuid.UUID                `json:"id"`
	UserID       uuid.UUID                `json:"userId"`
	PairID       uuid.UUID                `json:"pairId"`
	PaymentID    *uuid.UUID               `json:"paymentId"`
	Status       enums.SubscriptionStatus `json:"status"`
	InviteStatus enums.InviteStatus       `json:"inviteStatus"`
	Period       enums.SubscriptionPeriod `json:"period"`
	StartDate    *time.Time               `json:"startDate"`
	ExpiryDate   *time.Time               `json:"expiryDate"`
	BasePrice    *decimal.Decimal         `json:"basePrice"`
	DiscountRate *decimal.Decimal         `json:"discountRate"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
	User         *userResponse            `json:"user,omitempty"`
	Pair         *pairResponse            `json:"pair,omitempty"`
}

func subscriptionResponseFromModel(m *models.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		PairID:       m.PairID,
		PaymentID:    m.PaymentID,
		Status:       m.Status,
		InviteStatus: m.InviteStatus,
		Period:       m.Period,
		StartDate:    m.StartDate,
		ExpiryDate:   m.ExpiryDate,
		BasePrice:    m.BasePrice,
		DiscountRate: m.DiscountRate,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.User != nil {
		resp.User = userResponseFromModel(m.User)
	}
	if m.Pair != nil {
		pair := pairResponseFromModel(m.Pair)
		resp.Pair = &pair
	}
	return resp
}

type subscriptionListResponse struct {
	Items  []subscriptionResponse `json:"items"`
	Cursor string                 `json:"cursor,omitempty"`
}

// SubscriptionsGet serves both single-fetch (?id=) and the paginated list.
func SubscriptionsGet(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, single, err := parseQueryID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if single {
			row, err := svc.GetSubscription(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, subscriptionResponseFromModel(row))
			return
		}

		userID, _, err := parseQueryID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSubscriptions(r.Context(), subscriptions.ListParams{
			UserID: userID,
			Status: r.URL.Query().Get("status"),
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := subscriptionListResponse{Cursor: result.Cursor, Items: []subscriptionResponse{}}
		for i := range result.Items {
			resp.Items = append(resp.Items, subscriptionResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// SubscriptionsCreate creates one subscription per requested pair, atomically.
func SubscriptionsCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateSubscriptions(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]subscriptionResponse, 0, len(created))
		for i := range created {
			resp = append(resp, subscriptionResponseFromModel(&created[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// SubscriptionsUpdate applies a partial update. The legacy inviteState field
// is folded into inviteStatus before the service sees the payload.
func SubscriptionsUpdate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscriptionUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(payload.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		updated, err := svc.UpdateSubscription(r.Context(), actor, id, subscriptions.UpdateInput{
			Status:       payload.Status,
			InviteStatus: subscriptions.ResolveInviteStatusAlias(payload.InviteStatus, payload.InviteState),
			Period:       payload.Period,
			StartDate:    payload.StartDate,
			ExpiryDate:   payload.ExpiryDate,
			BasePrice:    payload.BasePrice,
			DiscountRate: payload.DiscountRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subscriptionResponseFromModel(updated))
	}
}

// SubscriptionsDelete hard-deletes the subscription named by ?id=.
func SubscriptionsDelete(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.DeleteSubscription(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
