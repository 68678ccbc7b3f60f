package pipeline

import (
	"context"
	"fmt"

	"github.com/wonny/loadsynth/internal/s5_evaluation"
)

// EnsembleResult is the spread of synthetic peaks over repeated S4 draws
type EnsembleResult struct {
	Peaks   []float64                     `json:"peaks"`
	Metrics []float64                     `json:"metrics"`
	Stats   *s5_evaluation.PeakStatistics `json:"stats"`
}

// Ensemble redraws S4 runs times from an existing result and evaluates each draw.
// Run i uses seed+i+1 when seed is set, so the base run (seed) is never repeated.
func (p *Pipeline) Ensemble(ctx context.Context, result *Result, runs int, seed *uint64) (*EnsembleResult, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("ensemble: runs must be positive, got %d", runs)
	}
	if result == nil || result.Profile == nil || result.Distribution == nil {
		return nil, fmt.Errorf("ensemble: result has no profile or distribution")
	}

	ens := &EnsembleResult{
		Peaks:   make([]float64, 0, runs),
		Metrics: make([]float64, 0, runs),
	}

	for i := 0; i < runs; i++ {
		var runSeed *uint64
		if seed != nil {
			s := *seed + uint64(i) + 1
			runSeed = &s
		}

		synthetic, err := p.synthesizer.Synthesize(ctx, result.Profile, result.Distribution, runSeed)
		if err != nil {
			return nil, fmt.Errorf("ensemble run %d: %w", i, err)
		}
		report, err := s5_evaluation.Evaluate(synthetic, result.Corrected, result.Profile)
		if err != nil {
			return nil, fmt.Errorf("ensemble run %d: %w", i, err)
		}

		ens.Peaks = append(ens.Peaks, report.SyntheticPeak)
		ens.Metrics = append(ens.Metrics, report.Metric)
	}

	stats, err := s5_evaluation.SummarizePeaks(ens.Peaks)
	if err != nil {
		return nil, err
	}
	ens.Stats = stats

	p.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"runs":   runs,
		"mean":   stats.Mean,
		"p90":    stats.P90,
		"p99":    stats.P99,
	}).Info("Ensemble completed")

	return ens, nil
}
