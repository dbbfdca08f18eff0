package auth

import (
	"github.com/agroscan/agroscan-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionPayload captures the data available when minting a session token.
type SessionPayload struct {
	UserID   uuid.UUID
	Username string
	Location string
	Role     enums.Role
	Mobile   string
	JTI      string
}

// SessionClaims represents the typed JWT issued to clients. It carries the
// profile fields the dashboards render without a round trip: username,
// location, role, and mobile number.
type SessionClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Username string     `json:"username"`
	Location string     `json:"location"`
	Role     enums.Role `json:"role"`
	Mobile   string     `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}
