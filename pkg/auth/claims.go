package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
)

// Claims is the JWT payload attached to authenticated requests.
type Claims struct {
	UserID string         `json:"uid"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Valid-role guard on top of the standard expiry checks.
func (c *Claims) roleValid() bool {
	return c.Role.IsValid()
}
