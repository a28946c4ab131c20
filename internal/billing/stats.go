package billing

import (
	"github.com/shopspring/decimal"

	"github.com/tradepulse/tradepulse-backend/pkg/db/models"
	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Stats summarize one user's billing history. Recomputed from the payment
// rows on every read; nothing here is cached.
type Stats struct {
	TotalSpent          decimal.Decimal `json:"total_spent"`
	TotalPayments       int             `json:"total_payments"`
	ActiveSubscriptions int             `json:"active_subscriptions"`
	PendingPayments     int             `json:"pending_payments"`
}

// ComputeStats folds over a payment slice. TotalSpent sums actually_paid,
// falling back to total_amount, over PAID payments only. TotalPayments
// counts every row regardless of status.
func ComputeStats(payments []models.Payment) Stats {
	stats := Stats{TotalSpent: decimal.Zero}
	for _, payment := range payments {
		stats.TotalPayments++
		switch payment.Status {
		case enums.PaymentStatusPaid:
			amount := payment.TotalAmount
			if payment.ActuallyPaid != nil {
				amount = *payment.ActuallyPaid
			}
			stats.TotalSpent = stats.TotalSpent.Add(amount)
		case enums.PaymentStatusPending:
			stats.PendingPayments++
		}
		for _, sub := range payment.Subscriptions {
			if sub.Status == enums.SubscriptionStatusActive {
				stats.ActiveSubscriptions++
			}
		}
	}
	return stats
}
