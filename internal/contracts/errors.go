package contracts

import "errors"

// =============================================================================
// Error taxonomy
// =============================================================================

// Every stage validates its own preconditions and fails fast with one of these.
// Callers match with errors.Is; stages wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrDataLengthMismatch series length is not a positive multiple of 8760,
	// or aligned series disagree in length
	ErrDataLengthMismatch = errors.New("data length mismatch")

	// ErrInsufficientData a month/day-type stratum has no observations
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidPeak peak is non-positive (normalization) or negative (estimation)
	ErrInvalidPeak = errors.New("invalid peak")

	// ErrDegenerateProfile a max-profile value is zero where it is used as divisor
	ErrDegenerateProfile = errors.New("degenerate max profile")

	// ErrEmptyDistribution a deviation stratum has no eligible samples
	ErrEmptyDistribution = errors.New("empty deviation distribution")

	// ErrRangeMismatch evaluation inputs share no overlapping index range,
	// or every overlapping index has a missing reading
	ErrRangeMismatch = errors.New("no overlapping range")

	// ErrNoNormalYear degree-day correction of a single year has no normal-year reference
	ErrNoNormalYear = errors.New("no normal-year temperatures")

	// ErrUnknownVariant curve variant or deviation mode selector is not recognized
	ErrUnknownVariant = errors.New("unknown variant")
)
