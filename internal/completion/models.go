package completion

import (
	"time"

	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Completion is a hiker's claim of having finished a trail. It is created
// pending or approved and only ever transitions pending -> approved|rejected.
type Completion struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	TrailID       string    `json:"trail_id"`
	Status        Status    `json:"status"`
	PhotoLocation geo.Point `json:"photo_location"`
	ProofPhotoURL string    `json:"proof_photo_url"`
	ReviewerNote  string    `json:"reviewer_note,omitempty"`
	GPSVerified   bool      `json:"gps_verified"`
	DistanceM     *float64  `json:"distance_m,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// CheckpointCompletion records a verified waypoint check-in. It exists only
// if the proximity check passed; there is no review state.
type CheckpointCompletion struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CheckpointID  string    `json:"checkpoint_id"`
	PhotoLocation geo.Point `json:"photo_location"`
	ProofPhotoURL string    `json:"proof_photo_url"`
	DistanceM     float64   `json:"distance_m"`
	CompletedAt   time.Time `json:"completed_at"`
}
