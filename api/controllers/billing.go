package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/billing"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type paymentItemRequest struct {
	PairID       string  `json:"pairId" validate:"required"`
	Period       string  `json:"period" validate:"required"`
	BasePrice    string  `json:"basePrice" validate:"required"`
	DiscountRate *string `json:"discountRate"`
}

type paymentCreateRequest struct {
	UserID   string               `json:"userId" validate:"required"`
	Currency string               `json:"currency"`
	Items    []paymentItemRequest `json:"items" validate:"required,min=1"`
}

type paymentUpdateRequest struct {
	ID           string  `json:"id" validate:"required"`
	Status       string  `json:"status" validate:"required"`
	ActuallyPaid *string `json:"actuallyPaid"`
}

type paymentItemResponse struct {
	ID           uuid.UUID                `json:"id"`
	PairID       uuid.UUID                `json:"pairId"`
	Period       enums.SubscriptionPeriod `json:"period"`
	BasePrice    decimal.Decimal          `json:"basePrice"`
	DiscountRate *decimal.Decimal         `json:"discountRate"`
	FinalPrice   decimal.Decimal          `json:"finalPrice"`
}

type paymentResponse struct {
	ID           uuid.UUID             `json:"id"`
	UserID       uuid.UUID             `json:"userId"`
	Status       enums.PaymentStatus   `json:"status"`
	TotalAmount  decimal.Decimal       `json:"totalAmount"`
	ActuallyPaid *decimal.Decimal      `json:"actuallyPaid"`
	Currency     string                `json:"currency"`
	PaidAt       *time.Time            `json:"paidAt"`
	CreatedAt    time.Time             `json:"createdAt"`
	Items        []paymentItemResponse `json:"items"`
}

func paymentResponseFromModel(m *models.Payment) paymentResponse {
	resp := paymentResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		Status:       m.Status,
		TotalAmount:  m.TotalAmount,
		ActuallyPaid: m.ActuallyPaid,
		Currency:     m.Currency,
		PaidAt:       m.PaidAt,
		CreatedAt:    m.CreatedAt,
		Items:        []paymentItemResponse{},
	}
	for _, item := range m.Items {
		resp.Items = append(resp.Items, paymentItemResponse{
			ID:           item.ID,
			PairID:       item.PairID,
			Period:       item.Period,
			BasePrice:    item.BasePrice,
			DiscountRate: item.DiscountRate,
			FinalPrice:   item.FinalPrice,
		})
	}
	return resp
}

type paymentListResponse struct {
	Items  []paymentResponse `json:"items"`
	Cursor string            `json:"cursor,omitempty"`
}

// BillingGet serves single-fetch (?id=) and the paginated payment listing.
func BillingGet(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, single, err := parseQueryID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if single {
			row, err := svc.GetPayment(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, paymentResponseFromModel(row))
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

		result, err := svc.ListPayments(r.Context(), billing.ListParams{
			UserID: userID,
			Status: r.URL.Query().Get("status"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := paymentListResponse{Cursor: result.Cursor, Items: []paymentResponse{}}
		for i := range result.Items {
			resp.Items = append(resp.Items, paymentResponseFromModel(&result.Items[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// BillingCreate records a new payment with its line items.
func BillingCreate(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId"))
			return
		}

		input := billing.CreateInput{UserID: userID, Currency: payload.Currency}
		for _, item := range payload.Items {
			pairID, err := uuid.Parse(item.PairID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pairId"))
				return
			}
			input.Items = append(input.Items, billing.ItemInput{
				PairID:       pairID,
				Period:       item.Period,
				BasePrice:    item.BasePrice,
				DiscountRate: item.DiscountRate,
			})
		}

		created, err := svc.CreatePayment(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, paymentResponseFromModel(created))
	}
}

// BillingUpdate transitions a payment's status.
func BillingUpdate(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(payload.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id"))
			return
		}

		updated, err := svc.UpdatePaymentStatus(r.Context(), actor, id, payload.Status, payload.ActuallyPaid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponseFromModel(updated))
	}
}

// BillingStats serves the caller's billing aggregates; staff may query any
// user via ?userId=.
func BillingStats(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := actor.ID
		if requested, ok, err := parseQueryID(r, "userId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if ok {
			if requested != actor.ID && !actor.Role.IsStaff() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot view another user's billing"))
				return
			}
			userID = requested
		}

		stats, err := svc.UserStats(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
