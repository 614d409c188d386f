package auth

import (
	"context"
)

// GetExternalIDFromContext returns the external identity id of the caller.
// Returns empty string if the request carries no session.
func GetExternalIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
