package completion

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateSubmission = errors.New("submission already exists")
	ErrTrailNotFound       = errors.New("trail not found")
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCompletionNotFound  = errors.New("completion not found")
	ErrNotCheckable        = errors.New("checkpoint is not checkable")
	ErrAlreadyReviewed     = errors.New("completion already reviewed")
	ErrDistanceUnavailable = errors.New("distance could not be determined")
)

// TooFarError rejects a checkpoint check-in whose proof photo lies outside
// the allowed radius. It carries the measured distance so the hiker sees how
// far off they were.
type TooFarError struct {
	DistanceM float64
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("proof location is %.0f m from the checkpoint, beyond the allowed radius", e.DistanceM)
}
