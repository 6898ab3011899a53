package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoHousehold = errors.New("token carries no household")

// AccessTokenPayload is what a caller supplies when minting.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	HouseholdID uuid.UUID
	JTI         string
}

// AccessTokenClaims scope every request to a single household.
type AccessTokenClaims struct {
	UserID      uuid.UUID `json:"user_id"`
	HouseholdID uuid.UUID `json:"household_id"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claim checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.HouseholdID == uuid.Nil {
		return ErrNoHousehold
	}
	if c.UserID == uuid.Nil {
		return errors.New("token carries no user")
	}
	return nil
}
