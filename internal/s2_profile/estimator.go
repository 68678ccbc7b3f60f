package s2_profile

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/internal/s1_curves"
)

// Estimate tiles the curve set across the calendar: profile[t] = peak × Level(month, day type, hour).
// The result has 8760 × cal.NumYears values.
func Estimate(curves s1_curves.CurveSet, peak float64, cal calendar.Calendar) (contracts.HourlySeries, error) {
	if curves == nil {
		return nil, fmt.Errorf("estimate max profile: nil curve set")
	}
	if math.IsNaN(peak) || peak < 0 {
		return nil, fmt.Errorf("%w: peak %v", contracts.ErrInvalidPeak, peak)
	}
	if cal.NumYears <= 0 {
		return nil, fmt.Errorf("%w: num_years must be positive, got %d",
			contracts.ErrDataLengthMismatch, cal.NumYears)
	}

	profile := make(contracts.HourlySeries, cal.Len())
	for t := range profile {
		profile[t] = peak * curves.Level(cal.MonthOf(t), cal.DayTypeOf(t), calendar.HourOfDay(t))
	}
	return profile, nil
}
