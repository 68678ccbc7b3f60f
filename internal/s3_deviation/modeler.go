package s3_deviation

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// Modeler turns aligned (corrected, profile) pairs into a deviation distribution.
//
// deviation[t] = (corrected[t] - profile[t]) / profile[t] over t < min(len(corrected), len(profile)).
// A zero profile value anywhere in that range fails with ErrDegenerateProfile; it is never
// skipped or clamped. Missing readings (NaN) contribute no sample.
type Modeler interface {
	Model(corrected, profile contracts.HourlySeries) (Distribution, error)
}

// ModelerFor resolves a deviation mode once, at pipeline construction
func ModelerFor(mode contracts.DeviationMode) (Modeler, error) {
	switch mode {
	case contracts.ModeShared:
		return SharedModeler{}, nil
	case contracts.ModeIndividual:
		return HourlyModeler{}, nil
	default:
		return nil, fmt.Errorf("%w: deviation mode %q", contracts.ErrUnknownVariant, mode)
	}
}

// SharedModeler pools every deviation ("felles")
type SharedModeler struct{}

// Model returns a *Shared distribution
func (SharedModeler) Model(corrected, profile contracts.HourlySeries) (Distribution, error) {
	dist := &Shared{}
	err := deviations(corrected, profile, func(_ int, d float64) {
		dist.Samples = append(dist.Samples, d)
	})
	if err != nil {
		return nil, err
	}
	if len(dist.Samples) == 0 {
		return nil, fmt.Errorf("%w: no aligned samples", contracts.ErrEmptyDistribution)
	}
	return dist, nil
}

// HourlyModeler stratifies deviations by hour of day ("individuell")
type HourlyModeler struct{}

// Model returns a *Hourly distribution; every hour of day must receive at least one sample
func (HourlyModeler) Model(corrected, profile contracts.HourlySeries) (Distribution, error) {
	dist := &Hourly{}
	err := deviations(corrected, profile, func(t int, d float64) {
		h := calendar.HourOfDay(t)
		dist.ByHour[h] = append(dist.ByHour[h], d)
	})
	if err != nil {
		return nil, err
	}
	for h, samples := range dist.ByHour {
		if len(samples) == 0 {
			return nil, fmt.Errorf("%w: no samples for hour %d", contracts.ErrEmptyDistribution, h)
		}
	}
	return dist, nil
}

// deviations validates the aligned range and emits one relative deviation per usable index
func deviations(corrected, profile contracts.HourlySeries, emit func(t int, d float64)) error {
	n := min(len(corrected), len(profile))

	// reject upfront so no partial distribution is ever built
	for t := 0; t < n; t++ {
		if profile[t] == 0 {
			return fmt.Errorf("%w: max profile is zero at t=%d", contracts.ErrDegenerateProfile, t)
		}
	}

	for t := 0; t < n; t++ {
		c, p := corrected[t], profile[t]
		if math.IsNaN(c) || math.IsNaN(p) {
			continue
		}
		emit(t, (c-p)/p)
	}
	return nil
}
