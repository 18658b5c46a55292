package enums

import "fmt"

// UserRole is the customer class attached to an authenticated user.
type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleBusiness UserRole = "b2b"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleConsumer,
	UserRoleBusiness,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsBusiness reports whether the role unlocks wholesale pricing.
func (r UserRole) IsBusiness() bool {
	return r == UserRoleBusiness
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
