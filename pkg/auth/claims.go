package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID          uuid.UUID
	RetailAccountID *uuid.UUID
	Role            enums.UserRole
	JTI             string
}

// AccessTokenClaims represents the typed JWT issued to clients. Buyers carry
// the retail account their cart and orders bind to; sales reps and admins
// authenticate without one.
type AccessTokenClaims struct {
	UserID          uuid.UUID      `json:"user_id"`
	RetailAccountID *uuid.UUID     `json:"retail_account_id,omitempty"`
	Role            enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
