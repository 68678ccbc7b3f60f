package loadpoint

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/contracts"
)

// Scale multiplies every reading by factor
func Scale(s contracts.HourlySeries, factor float64) contracts.HourlySeries {
	out := make(contracts.HourlySeries, len(s))
	for i, v := range s {
		out[i] = v * factor
	}
	return out
}

// ScaleToPeak rescales s so that its peak equals target
func ScaleToPeak(s contracts.HourlySeries, target float64) (contracts.HourlySeries, error) {
	if math.IsNaN(target) || target < 0 {
		return nil, fmt.Errorf("%w: target peak %v", contracts.ErrInvalidPeak, target)
	}
	peak := s.Peak()
	if !(peak > 0) {
		return nil, fmt.Errorf("%w: current peak %v", contracts.ErrInvalidPeak, peak)
	}
	return Scale(s, target/peak), nil
}

// Offset adds delta to every reading (a flat load increase; negative decreases)
func Offset(s contracts.HourlySeries, delta float64) contracts.HourlySeries {
	out := make(contracts.HourlySeries, len(s))
	for i, v := range s {
		out[i] = v + delta
	}
	return out
}

// Sum adds series element-wise over their common length; a missing reading in any input
// makes the sum missing
func Sum(series ...contracts.HourlySeries) contracts.HourlySeries {
	if len(series) == 0 {
		return nil
	}
	n := len(series[0])
	for _, s := range series[1:] {
		n = min(n, len(s))
	}
	out := make(contracts.HourlySeries, n)
	for _, s := range series {
		for i := 0; i < n; i++ {
			out[i] += s[i]
		}
	}
	return out
}
