package enums

import "fmt"

// Role represents the account type chosen at signup.
type Role string

const (
	RoleFarmer     Role = "farmer"
	RoleAgronomist Role = "agronomist"
)

var validRoles = []Role{
	RoleFarmer,
	RoleAgronomist,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// DashboardRoute returns the dashboard path owned by the role. The mapping is
// explicit so an unrecognized role can never produce a broken redirect target.
func (r Role) DashboardRoute() (string, error) {
	switch r {
	case RoleFarmer:
		return "/api/v1/dashboard/live", nil
	case RoleAgronomist:
		return "/api/v1/agronomist/queries", nil
	}
	return "", fmt.Errorf("no dashboard for role %q", r)
}
