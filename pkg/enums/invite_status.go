package enums

import (
	"fmt"
	"strings"
)

// InviteStatus tracks delivery of the signal-channel invite that accompanies
// a subscription. Completing the invite is what actually starts the clock on
// the billing period.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "PENDING"
	InviteStatusSent      InviteStatus = "SENT"
	InviteStatusCompleted InviteStatus = "COMPLETED"
	InviteStatusCancelled InviteStatus = "CANCELLED"
)

var validInviteStatuses = []InviteStatus{
	InviteStatusPending,
	InviteStatusSent,
	InviteStatusCompleted,
	InviteStatusCancelled,
}

// String implements fmt.Stringer.
func (s InviteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s InviteStatus) IsValid() bool {
	for _, candidate := range validInviteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInviteStatus converts raw input into an InviteStatus. Input is
// upper-cased first, and the single-L "CANCELED" spelling some clients still
// send is accepted as an alias.
func ParseInviteStatus(value string) (InviteStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "CANCELED" {
		normalized = string(InviteStatusCancelled)
	}
	status := InviteStatus(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invite status %q", value)
	}
	return status, nil
}
