package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_MultipleKinds(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrDeleteFailed, ErrNotFound)

	assert.True(t, errors.Is(err, ErrDeleteFailed))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "failed to delete entry: not found", err.Error())
}

func TestErrors_Distinct(t *testing.T) {
	kinds := []error{ErrUnauthorized, ErrNotFound, ErrDeleteFailed, ErrConflict, ErrInvalidInput}
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
