package auth

import (
	"github.com/agroscan/agroscan-backend/internal/users"
)

// SignupRequest contains the payload for creating an account. Role is fixed
// at signup and never changes afterwards.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Location string `json:"location"`
	Role     string `json:"role" validate:"required"`
	Mobile   string `json:"mobile" validate:"omitempty,min=7,max=15"`
}

// LoginRequest contains the credentials payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by both signup and login. DashboardRoute tells
// the client where to land for the account's role.
type SessionResponse struct {
	Token          string         `json:"token"`
	DashboardRoute string         `json:"dashboard_route"`
	User           *users.UserDTO `json:"user"`
}
