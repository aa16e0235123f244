package domain

import (
	"time"

	"github.com/google/uuid"
)

// GuideRequest is the journal record of one settled guide dispatch.
type GuideRequest struct {
	ID              uuid.UUID
	UserID          int64
	ChatID          int64
	UserTurnID      string
	AssistantTurnID string
	Category        Category
	Outcome         string
	Fragments       int
	Dropped         int
	Malformed       int
	SentinelSeen    bool
	ResponseChars   int
	Duration        time.Duration
	Error           string
	CreatedAt       time.Time
}

// RequestStats aggregates the journal of one user.
type RequestStats struct {
	Total     int
	Failed    int
	Dropped   int
	Malformed int
}
