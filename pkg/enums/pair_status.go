package enums

import (
	"fmt"
	"strings"
)

// PairStatus marks whether a trading pair is open for new subscriptions.
type PairStatus string

const (
	PairStatusActive   PairStatus = "ACTIVE"
	PairStatusInactive PairStatus = "INACTIVE"
)

// String implements fmt.Stringer.
func (s PairStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PairStatus) IsValid() bool {
	return s == PairStatusActive || s == PairStatusInactive
}

// ParsePairStatus converts raw input into a PairStatus.
func ParsePairStatus(value string) (PairStatus, error) {
	normalized := PairStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid pair status %q", value)
	}
	return normalized, nil
}
