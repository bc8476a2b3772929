package session

import (
	"context"
	"time"

	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"
)

// Fix is a single positioning sample delivered by the platform's location
// service.
type Fix struct {
	Point      geo.Point `json:"point"`
	RecordedAt time.Time `json:"recorded_at"`
}

// WatchOptions bounds the fix delivery rate: a fix at least every
// MinInterval, or every MinDistanceM of movement, whichever triggers first.
type WatchOptions struct {
	MinInterval  time.Duration
	MinDistanceM float64
}

// LocationProvider abstracts the platform geolocation service. Watch
// delivers fixes on the returned channel until ctx is cancelled; the
// provider closes the channel when the watch ends.
type LocationProvider interface {
	Watch(ctx context.Context, opts WatchOptions) (<-chan Fix, error)
}
