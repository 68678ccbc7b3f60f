package s1_curves

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// MonthlyExtractor builds variant A curves
type MonthlyExtractor struct{}

// Extract computes per-month maxima across all years and the mean weekday/weekend
// daily shapes, all divided by the global peak.
func (MonthlyExtractor) Extract(corrected contracts.HourlySeries, cal calendar.Calendar) (CurveSet, error) {
	peak, err := normalizer(corrected)
	if err != nil {
		return nil, err
	}

	var monthMax [contracts.MonthsPerYear]float64
	for m := range monthMax {
		monthMax[m] = math.NaN()
	}
	var sums, counts [2][contracts.HoursPerDay]float64

	for t, v := range corrected {
		if math.IsNaN(v) {
			continue
		}
		m := cal.MonthOf(t)
		if math.IsNaN(monthMax[m]) || v > monthMax[m] {
			monthMax[m] = v
		}
		dt := cal.DayTypeOf(t)
		h := calendar.HourOfDay(t)
		sums[dt][h] += v
		counts[dt][h]++
	}

	curves := &MonthlyCurves{}
	for m, v := range monthMax {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: no observations in month %d", contracts.ErrInsufficientData, m+1)
		}
		curves.MonthlyMax[m] = v / peak
	}
	for _, dt := range []contracts.DayType{contracts.Workday, contracts.Weekend} {
		shape := &curves.Weekday
		if dt == contracts.Weekend {
			shape = &curves.Weekend
		}
		for h := 0; h < contracts.HoursPerDay; h++ {
			if counts[dt][h] == 0 {
				return nil, fmt.Errorf("%w: no %s observations at hour %d",
					contracts.ErrInsufficientData, dt, h)
			}
			shape[h] = sums[dt][h] / counts[dt][h] / peak
		}
	}
	return curves, nil
}
