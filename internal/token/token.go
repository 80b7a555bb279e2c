// Package token validates the bearer tokens that carry actor identity.
// Session issuance and refresh live outside this service; we only need
// enough to reconstruct an ActorContext from a signed token.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinica/internal/actor"
	"clinica/internal/principal"
	dErrors "clinica/pkg/domain-errors"
)

// Claims are the actor fields embedded in our access tokens. Subject carries
// the actor id.
type Claims struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Timezone    string `json:"timezone,omitempty"`
	jwt.RegisteredClaims
}

// Service handles token validation (and generation, used by tests and the
// seed tooling).
type Service struct {
	signingKey []byte
}

func NewService(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// Generate signs a token for the given principal.
func (s *Service) Generate(p *principal.Principal, timezone string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Role:        string(p.Role),
		Timezone:    timezone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	})
	return t.SignedString(s.signingKey)
}

// Validate parses a token and rebuilds the ActorContext it carries. The
// result is untrusted until the engine re-reads the principal inside the
// action's transaction.
func (s *Service) Validate(tokenString string) (*actor.Context, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid or expired token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid token claims")
	}
	return &actor.Context{
		ID:          claims.Subject,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Role:        principal.Role(claims.Role),
		Timezone:    claims.Timezone,
	}, nil
}
