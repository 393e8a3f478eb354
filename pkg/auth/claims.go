package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// validateIdentity rejects tokens whose subject and user id disagree or whose
// role is not one the API knows.
func (c *AccessTokenClaims) validateIdentity() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("token missing user id")
	}
	if c.Subject != "" && c.Subject != c.UserID.String() {
		return fmt.Errorf("token subject does not match user id")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("token carries unknown role %q", c.Role)
	}
	return nil
}
