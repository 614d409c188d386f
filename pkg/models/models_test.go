package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"A", "B", "A B"},
		{"Ada", "", "Ada"},
		{"", "Lovelace", "Lovelace"},
		{"", "", ""},
		{"  Ada ", " Lovelace  ", "Ada Lovelace"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.first, tt.last), "first=%q last=%q", tt.first, tt.last)
	}
}

func TestFilterOwned(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	entries := []*JournalEntry{
		{ID: uuid.New(), UserID: owner},
		{ID: uuid.New(), UserID: other},
		{ID: uuid.New(), UserID: owner},
	}

	kept, dropped := FilterOwned(entries, owner)
	require.Len(t, kept, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, entries[0].ID, kept[0].ID)
	assert.Equal(t, entries[2].ID, kept[1].ID)

	kept, dropped = FilterOwned(entries, uuid.Nil)
	assert.Empty(t, kept)
	assert.Equal(t, 3, dropped)
}

func TestSentimentPoint_JSONOmitsOwner(t *testing.T) {
	point := SentimentPoint{UserID: uuid.New(), SentimentScore: -2.5, Color: "#0101fe", Mood: "sad"}

	data, err := json.Marshal(point)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sentiment_score":-2.5,"color":"#0101fe","mood":"sad"}`, string(data))
}
