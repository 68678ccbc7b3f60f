package s1_curves

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// MatrixExtractor builds variant B curves
type MatrixExtractor struct{}

// Extract averages every (month, day type, hour) stratum and divides by the global peak
func (MatrixExtractor) Extract(corrected contracts.HourlySeries, cal calendar.Calendar) (CurveSet, error) {
	peak, err := normalizer(corrected)
	if err != nil {
		return nil, err
	}

	var sums, counts [2][contracts.MonthsPerYear][contracts.HoursPerDay]float64
	for t, v := range corrected {
		if math.IsNaN(v) {
			continue
		}
		s := cal.Locate(t)
		sums[s.DayType][s.Month][s.HourOfDay] += v
		counts[s.DayType][s.Month][s.HourOfDay]++
	}

	curves := &MatrixCurves{}
	for _, dt := range []contracts.DayType{contracts.Workday, contracts.Weekend} {
		matrix := &curves.Weekday
		if dt == contracts.Weekend {
			matrix = &curves.Weekend
		}
		for m := 0; m < contracts.MonthsPerYear; m++ {
			for h := 0; h < contracts.HoursPerDay; h++ {
				if counts[dt][m][h] == 0 {
					return nil, fmt.Errorf("%w: no %s observations in month %d at hour %d",
						contracts.ErrInsufficientData, dt, m+1, h)
				}
				matrix[m][h] = sums[dt][m][h] / counts[dt][m][h] / peak
			}
		}
	}
	return curves, nil
}
