package enums

import (
	"fmt"
	"strings"
)

// CommissionStatus tracks affiliate commission payout state. Commissions have
// their own lifecycle, independent of the subscription they were earned from.
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "PENDING"
	CommissionStatusPaid    CommissionStatus = "PAID"
)

// String implements fmt.Stringer.
func (s CommissionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s CommissionStatus) IsValid() bool {
	return s == CommissionStatusPending || s == CommissionStatusPaid
}

// ParseCommissionStatus converts raw input into a CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	normalized := CommissionStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid commission status %q", value)
	}
	return normalized, nil
}
