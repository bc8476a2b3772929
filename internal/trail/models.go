package trail

import (
	"time"

	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"
)

type Trail struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Difficulty  string     `json:"difficulty"`
	StartPoint  *geo.Point `json:"start_point,omitempty"`
	EndPoint    *geo.Point `json:"end_point,omitempty"`
	RouteWKT    string     `json:"route,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Checkpoint struct {
	ID          string    `json:"id"`
	TrailID     string    `json:"trail_id"`
	Name        string    `json:"name"`
	Coordinates geo.Point `json:"coordinates"`
	IsCheckable bool      `json:"is_checkable"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}
