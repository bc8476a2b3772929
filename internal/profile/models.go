package profile

import "time"

type Stats struct {
	UserID          string `json:"user_id"`
	CompletedTrails int    `json:"completed_trails"`
}

type Badge struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	MinCompletions int       `json:"min_completions"`
	EarnedAt       time.Time `json:"earned_at,omitempty"`
}
