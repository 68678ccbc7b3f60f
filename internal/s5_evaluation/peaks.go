package s5_evaluation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PeakStatistics summarizes synthetic peaks over repeated draws
type PeakStatistics struct {
	Runs   int     `json:"runs"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// SummarizePeaks computes the spread of synthetic peaks
func SummarizePeaks(peaks []float64) (*PeakStatistics, error) {
	if len(peaks) == 0 {
		return nil, fmt.Errorf("summarize peaks: no runs")
	}

	sorted := make([]float64, len(peaks))
	copy(sorted, peaks)
	sort.Float64s(sorted)

	ps := &PeakStatistics{
		Runs: len(sorted),
		Mean: stat.Mean(sorted, nil),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99:  stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		ps.StdDev = stat.StdDev(sorted, nil)
	}
	return ps, nil
}
