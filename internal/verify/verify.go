package verify

// Proximity radii in meters. Trail completions allow a wider margin than
// checkpoint check-ins because endpoint photos are often taken from
// viewpoints off the marker itself.
const (
	CompletionRadiusM = 500.0
	CheckinRadiusM    = 200.0
)

type Outcome int

const (
	// Unknown means the distance could not be computed. It never
	// auto-approves: missing data fails closed.
	Unknown Outcome = iota
	Verified
	TooFar
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case TooFar:
		return "too_far"
	default:
		return "unknown"
	}
}

// Result is the outcome of a proximity check. DistanceM is set for
// Verified and TooFar, nil for Unknown.
type Result struct {
	Outcome   Outcome
	DistanceM *float64
}

// Evaluate compares a measured distance against a threshold. A nil
// measurement yields Unknown.
func Evaluate(measuredM *float64, thresholdM float64) Result {
	if measuredM == nil {
		return Result{Outcome: Unknown}
	}
	if *measuredM <= thresholdM {
		return Result{Outcome: Verified, DistanceM: measuredM}
	}
	return Result{Outcome: TooFar, DistanceM: measuredM}
}
