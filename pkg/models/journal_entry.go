package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is one journal entry. It is addressed by (UserID, ID);
// every lookup and mutation filters on both.
type JournalEntry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Analysis  *EntryAnalysis `json:"analysis,omitempty"`
}

// OwnerID implements Owned.
func (e *JournalEntry) OwnerID() uuid.UUID {
	return e.UserID
}

// EntryAnalysis is the sentiment analysis of a single entry.
// It is written by an external analysis process and only read here.
type EntryAnalysis struct {
	ID             uuid.UUID `json:"id"`
	EntryID        uuid.UUID `json:"entry_id"`
	UserID         uuid.UUID `json:"user_id"`
	Mood           string    `json:"mood"`
	Summary        string    `json:"summary"`
	Subject        string    `json:"subject"`
	Color          string    `json:"color"`
	Negative       bool      `json:"negative"`
	SentimentScore float64   `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SentimentPoint is the analytics projection of an EntryAnalysis.
// UserID is carried for ownership filtering and never serialized.
type SentimentPoint struct {
	UserID         uuid.UUID `json:"-"`
	SentimentScore float64   `json:"sentiment_score"`
	Color          string    `json:"color"`
	Mood           string    `json:"mood"`
}

// OwnerID implements Owned.
func (p *SentimentPoint) OwnerID() uuid.UUID {
	return p.UserID
}
