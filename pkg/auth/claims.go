package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. The subject
// claim carries the user id.
type AccessTokenClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts validated claims into the identity handed to domain services.
func (c *AccessTokenClaims) Actor() (types.Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return types.Actor{}, err
	}
	return types.Actor{ID: id, Role: c.Role}, nil
}
