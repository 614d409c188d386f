package models

import "github.com/google/uuid"

// Owned is implemented by records that belong to exactly one user.
type Owned interface {
	OwnerID() uuid.UUID
}

// OwnedBy reports whether record belongs to userID. A nil user id owns nothing.
func OwnedBy(record Owned, userID uuid.UUID) bool {
	return userID != uuid.Nil && record.OwnerID() == userID
}

// FilterOwned returns the records owned by userID and the number dropped.
// The input order is preserved.
func FilterOwned[T Owned](records []T, userID uuid.UUID) ([]T, int) {
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if OwnedBy(r, userID) {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept)
}
