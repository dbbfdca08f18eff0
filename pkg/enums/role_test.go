package enums

import "testing"

func TestDashboardRoutePerRole(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleFarmer, "/api/v1/dashboard/live"},
		{RoleAgronomist, "/api/v1/agronomist/queries"},
	}
	for _, tc := range cases {
		route, err := tc.role.DashboardRoute()
		if err != nil {
			t.Fatalf("%s: %v", tc.role, err)
		}
		if route != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.role, tc.want, route)
		}
	}
}

func TestDashboardRouteUnknownRole(t *testing.T) {
	if _, err := Role("vet").DashboardRoute(); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}
