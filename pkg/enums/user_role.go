package enums

import "fmt"

// UserRole distinguishes the three surfaces of the platform: buyers placing
// orders, sales reps ordering on behalf of accounts, and back-office admins.
type UserRole string

const (
	UserRoleBuyer    UserRole = "buyer"
	UserRoleSalesRep UserRole = "sales_rep"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleSalesRep,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
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
