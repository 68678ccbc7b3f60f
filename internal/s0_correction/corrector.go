package s0_correction

import (
	"fmt"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// Correction methods accepted by ForMethod
const (
	MethodNone      = "none"
	MethodDegreeDay = "degree_day"
)

// Corrector removes weather-driven variance from a measured load series.
// Output has the same length and unit as the input; the input is never modified.
type Corrector interface {
	Correct(raw contracts.HourlySeries, cal calendar.Calendar) (contracts.HourlySeries, error)
}

// Identity returns the measured series unchanged (already weather-normalized input)
type Identity struct{}

// Correct returns a copy of raw
func (Identity) Correct(raw contracts.HourlySeries, _ calendar.Calendar) (contracts.HourlySeries, error) {
	if _, err := raw.Years(); err != nil {
		return nil, err
	}
	return raw.Clone(), nil
}

// ForMethod resolves a correction method name into a Corrector.
// temps and normal are only consulted for degree_day; normal may be nil.
func ForMethod(method string, temps, normal contracts.HourlySeries, baseTempC float64) (Corrector, error) {
	switch method {
	case "", MethodNone:
		return Identity{}, nil
	case MethodDegreeDay:
		if len(temps) == 0 {
			return nil, fmt.Errorf("degree_day correction requires a temperature series")
		}
		return &DegreeDay{
			Temperatures: temps,
			Normal:       normal,
			BaseTempC:    baseTempC,
		}, nil
	default:
		return nil, fmt.Errorf("%w: correction method %q", contracts.ErrUnknownVariant, method)
	}
}
