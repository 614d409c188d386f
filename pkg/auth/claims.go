// Package auth validates session tokens issued by the external identity
// provider. Tokens are JWTs signed by the provider; public keys come from
// the provider's JWKS endpoint. The token subject is the provider's stable
// user id (the external identity id).
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
)

// Claims represents the session token claims issued by the identity provider.
// Subject carries the external identity id.
type Claims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid,omitempty"`   // Provider session id
	AuthorizedParty string `json:"azp,omitempty"`   // Origin the token was minted for
	Email           string `json:"email,omitempty"` // Present only if the provider template adds it
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying the validated claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
