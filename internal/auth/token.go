package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"creativelab/internal/domain"
)

const (
	tokenIssuer   = "creative-lab"
	tokenAudience = "creative-lab-clients"
)

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer for the given signing secret.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: signing secret is required")
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

// Sign mints a session token for the given account email.
func (t *TokenIssuer) Sign(email string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses a session token and returns the account email it was minted
// for. Expired or tampered tokens return domain.ErrUnauthorized.
func (t *TokenIssuer) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}
