package s5_evaluation

import (
	"fmt"
	"math"

	"github.com/wonny/loadsynth/internal/contracts"
)

// Report is the quality of one synthetic series
type Report struct {
	// Metric = Σ |synthetic[t] - corrected[t]| / profile[t] over the window; lower is better.
	// Grows with window length, so only comparable between runs of equal length.
	Metric float64 `json:"metric"`

	// SyntheticPeak is the peak of the whole synthetic series
	SyntheticPeak float64 `json:"synthetic_peak"`

	Window    int     `json:"window"`     // overlap length
	Compared  int     `json:"compared"`   // indices without missing readings
	MeanError float64 `json:"mean_error"` // Metric / Compared
}

// Evaluate compares synthetic against corrected load over the index range common to all
// three series. Missing readings are skipped; an overlap with nothing left to compare
// fails with ErrRangeMismatch.
func Evaluate(synthetic, corrected, profile contracts.HourlySeries) (*Report, error) {
	window := min(len(synthetic), len(corrected), len(profile))
	if window == 0 {
		return nil, fmt.Errorf("%w: lengths synthetic=%d corrected=%d profile=%d",
			contracts.ErrRangeMismatch, len(synthetic), len(corrected), len(profile))
	}

	for t := 0; t < window; t++ {
		if profile[t] == 0 {
			return nil, fmt.Errorf("%w: max profile is zero at t=%d", contracts.ErrDegenerateProfile, t)
		}
	}

	report := &Report{
		SyntheticPeak: synthetic.Peak(),
		Window:        window,
	}
	for t := 0; t < window; t++ {
		s, c, p := synthetic[t], corrected[t], profile[t]
		if math.IsNaN(s) || math.IsNaN(c) || math.IsNaN(p) {
			continue
		}
		report.Metric += math.Abs(s-c) / p
		report.Compared++
	}
	if report.Compared == 0 {
		return nil, fmt.Errorf("%w: all %d overlapping hours have a missing reading",
			contracts.ErrRangeMismatch, window)
	}
	report.MeanError = report.Metric / float64(report.Compared)
	return report, nil
}
