package enums

import (
	"fmt"
	"strings"
)

// UserRole determines which log sink records an actor's mutations:
// USER actions land in the events table, every other role in audit_logs.
type UserRole string

const (
	UserRoleUser    UserRole = "USER"
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleSupport UserRole = "SUPPORT"
	UserRoleManager UserRole = "MANAGER"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleAdmin,
	UserRoleSupport,
	UserRoleManager,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to the back-office console.
func (r UserRole) IsStaff() bool {
	switch r {
	case UserRoleAdmin, UserRoleSupport, UserRoleManager:
		return true
	}
	return false
}

// ParseUserRole converts raw input into a UserRole, upper-casing first.
func ParseUserRole(value string) (UserRole, error) {
	normalized := UserRole(strings.ToUpper(strings.TrimSpace(value)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return normalized, nil
}
