package logging

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeConnectionString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"keyword form", "host=db user=journal password=hunter2 dbname=journal", "host=db user=journal password=[REDACTED] dbname=journal"},
		{"url form", "postgres://journal:hunter2@db:5432/journal", "postgres://[REDACTED]@db:5432/journal"},
		{"no credentials", "redis://cache:6379/0", "redis://cache:6379/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeConnectionString(tt.input))
		})
	}
}

func TestSanitizeError(t *testing.T) {
	assert.Equal(t, "", SanitizeError(nil))

	err := fmt.Errorf("request with Bearer abc.def.ghi failed: %w", errors.New("boom"))
	assert.Equal(t, "request with Bearer [REDACTED] failed: boom", SanitizeError(err))

	err = errors.New("bad token eyJhbGciOiJub25lIn0.eyJzdWIiOiJ1In0. rejected")
	assert.Equal(t, "bad token [REDACTED] rejected", SanitizeError(err))

	err = errors.New(`duplicate key value (email)=(alice@example.com)`)
	assert.Equal(t, `duplicate key value (email)=(a***@example.com)`, SanitizeError(err))

	err = errors.New("dial postgres://journal:pw@db:5432/journal: refused")
	assert.Equal(t, "dial postgres://[REDACTED]@db:5432/journal: refused", SanitizeError(err))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "a***@x.com", RedactEmail("a@x.com"))
	assert.Equal(t, "b***@example.org", RedactEmail("bob@example.org"))
	assert.Equal(t, RedactedText, RedactEmail("not-an-email"))
	assert.Equal(t, RedactedText, RedactEmail("@x.com"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc...", TruncateString("abcdef", 3))
}
