package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the internal record for one identity-provider account.
// ExternalID is the provider's stable user id and is unique.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName joins first and last name with a single space,
// skipping whichever part is missing.
func DisplayName(first, last string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{first, last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
