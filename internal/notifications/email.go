package notifications

import (
	"context"

	"github.com/tradepulse/tradepulse-backend/pkg/enums"
)

// Email is one templated message addressed to a single recipient.
type Email struct {
	Template enums.EmailTemplate `json:"template"`
	To       string              `json:"to"`
	Params   map[string]string   `json:"params,omitempty"`
}

// Sender delivers or enqueues one email. Callers treat failures as
// best-effort: they log and move on.
type Sender interface {
	Send(ctx context.Context, email Email) error
}
