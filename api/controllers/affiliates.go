package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/api/responses"
	"github.com/tradepulse/tradepulse-backend/api/validators"
	"github.com/tradepulse/tradepulse-backend/internal/commissions"
	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
	pkgerrors "github.com/tradepulse/tradepulse-backend/pkg/errors"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/pagination"
)

type affiliateResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReferralCode   string          `json:"referralCode"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	Disabled       bool            `json:"disabled"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func affiliateResponseFromModel(m *models.Affiliate) affiliateResponse {
	return affiliateResponse{
		ID:             m.ID,
		ReferralCode:   m.ReferralCode,
		CommissionRate: m.CommissionRate,
		Disabled:       m.Disabled,
		CreatedAt:      m.CreatedAt,
	}
}

type commissionResponse struct {
	ID        uuid.UUID              `json:"id"`
	PaymentID uuid.UUID              `json:"paymentId"`
	Amount    decimal.Decimal        `json:"amount"`
	Rate      decimal.Decimal        `json:"rate"`
	Status    enums.CommissionStatus `json:"status"`
	PaidAt    *time.Time             `json:"paidAt"`
	CreatedAt time.Time              `json:"createdAt"`
}

type commissionListResponse struct {
	Items        []commissionResponse `json:"items"`
	Cursor       string               `json:"cursor,omitempty"`
	PendingTotal decimal.Decimal      `json:"pendingTotal"`
	PaidTotal    decimal.Decimal      `json:"paidTotal"`
}

// AffiliateMe returns the caller's affiliate profile.
func AffiliateMe(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		affiliate, err := svc.GetAffiliateForOwner(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, affiliateResponseFromModel(affiliate))
	}
}

// AffiliateCommissions lists the caller's commissions with running totals.
func AffiliateCommissions(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		affiliate, err := svc.GetAffiliateForOwner(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForAffiliate(r.Context(), commissions.ListParams{
			AffiliateID: affiliate.ID,
			Status:      r.URL.Query().Get("status"),
			Limit:       limit,
			Cursor:      r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := commissionListResponse{
			Cursor:       result.Cursor,
			PendingTotal: result.PendingTotal,
			PaidTotal:    result.PaidTotal,
			Items:        []commissionResponse{},
		}
		for _, row := range result.Items {
			resp.Items = append(resp.Items, commissionResponse{
				ID:        row.ID,
				PaymentID: row.PaymentID,
				Amount:    row.Amount,
				Rate:      row.Rate,
				Status:    row.Status,
				PaidAt:    row.PaidAt,
				CreatedAt: row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

// CommissionPayout marks one commission as paid out.
func CommissionPayout(svc commissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission id"))
			return
		}

		paid, err := svc.MarkPaid(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, commissionResponse{
			ID:        paid.ID,
			PaymentID: paid.PaymentID,
			Amount:    paid.Amount,
			Rate:      paid.Rate,
			Status:    paid.Status,
			PaidAt:    paid.PaidAt,
			CreatedAt: paid.CreatedAt,
		})
	}
}
