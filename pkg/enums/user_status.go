package enums

import "fmt"

// UserStatus controls whether a user may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

var validUserStatuss = []UserStatus{
	UserStatusActive,
	UserStatusInactive,
}

// String implements fmt.Stringer.
func (v UserStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known UserStatus.
func (v UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}
