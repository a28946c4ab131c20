package enums

import (
	"fmt"
	"strings"
)

// SubscriptionPeriod is the billing period a subscriber pays for up front.
type SubscriptionPeriod string

const (
	SubscriptionPeriodOneMonth     SubscriptionPeriod = "ONE_MONTH"
	SubscriptionPeriodThreeMonths  SubscriptionPeriod = "THREE_MONTHS"
	SubscriptionPeriodSixMonths    SubscriptionPeriod = "SIX_MONTHS"
	SubscriptionPeriodTwelveMonths SubscriptionPeriod = "TWELVE_MONTHS"
)

var validSubscriptionPeriods = []SubscriptionPeriod{
	SubscriptionPeriodOneMonth,
	SubscriptionPeriodThreeMonths,
	SubscriptionPeriodSixMonths,
	SubscriptionPeriodTwelveMonths,
}

var subscriptionPeriodMonths = map[SubscriptionPeriod]int{
	SubscriptionPeriodOneMonth:     1,
	SubscriptionPeriodThreeMonths:  3,
	SubscriptionPeriodSixMonths:    6,
	SubscriptionPeriodTwelveMonths: 12,
}

// String implements fmt.Stringer.
func (p SubscriptionPeriod) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p SubscriptionPeriod) IsValid() bool {
	_, ok := subscriptionPeriodMonths[p]
	return ok
}

// Months returns the calendar-month offset for the period, or 0 when the
// period is unrecognized. Callers treat 0 as "leave the expiry untouched".
func (p SubscriptionPeriod) Months() int {
	return subscriptionPeriodMonths[p]
}

// ParseSubscriptionPeriod converts raw input into a SubscriptionPeriod.
func ParseSubscriptionPeriod(value string) (SubscriptionPeriod, error) {
	normalized := SubscriptionPeriod(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validSubscriptionPeriods {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription period %q", value)
}
