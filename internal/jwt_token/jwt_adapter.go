package jwttoken

import (
	"github.com/google/uuid"

	dErrors "trustline/pkg/domain-errors"
	id "trustline/pkg/domain"
	"trustline/pkg/requestcontext"
)

// PrincipalProvider adapts JWTService to the auth middleware's validator
// interface, turning validated claims into a requestcontext.Principal.
type PrincipalProvider struct {
	service *JWTService
}

func NewPrincipalProvider(service *JWTService) *PrincipalProvider {
	return &PrincipalProvider{service: service}
}

func (p *PrincipalProvider) Principal(tokenString string) (requestcontext.Principal, error) {
	claims, err := p.service.ValidateToken(tokenString)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	return ToPrincipal(claims)
}

func ToPrincipal(claims *Claims) (requestcontext.Principal, error) {
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return requestcontext.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role := requestcontext.Role(claims.Role)
	if !role.IsValid() {
		return requestcontext.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	principal := requestcontext.Principal{ID: userID, Role: role}
	if claims.ProfileID != "" {
		profileID, err := uuid.Parse(claims.ProfileID)
		if err != nil {
			return requestcontext.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token profile")
		}
		principal.ProfileID = profileID
	}
	return principal, nil
}
