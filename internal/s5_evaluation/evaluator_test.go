package s5_evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		synthetic  contracts.HourlySeries
		corrected  contracts.HourlySeries
		profile    contracts.HourlySeries
		wantMetric float64
		wantPeak   float64
		wantWindow int
	}{
		{
			name:       "two hours",
			synthetic:  contracts.HourlySeries{110, 90},
			corrected:  contracts.HourlySeries{100, 100},
			profile:    contracts.HourlySeries{100, 100},
			wantMetric: 0.2,
			wantPeak:   110,
			wantWindow: 2,
		},
		{
			name:       "self comparison",
			synthetic:  contracts.HourlySeries{5, 80, 31},
			corrected:  contracts.HourlySeries{5, 80, 31},
			profile:    contracts.HourlySeries{10, 100, 40},
			wantMetric: 0,
			wantPeak:   80,
			wantWindow: 3,
		},
		{
			// synthetic spans more years than the measurement; peak covers all of it
			name:       "window bounded by measurement",
			synthetic:  contracts.HourlySeries{120, 100, 500},
			corrected:  contracts.HourlySeries{100, 100},
			profile:    contracts.HourlySeries{200, 200, 200},
			wantMetric: 0.1,
			wantPeak:   500,
			wantWindow: 2,
		},
		{
			name:       "missing reading skipped",
			synthetic:  contracts.HourlySeries{110, 300},
			corrected:  contracts.HourlySeries{100, math.NaN()},
			profile:    contracts.HourlySeries{100, 100},
			wantMetric: 0.1,
			wantPeak:   300,
			wantWindow: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Evaluate(tt.synthetic, tt.corrected, tt.profile)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMetric, report.Metric, 1e-12)
			assert.Equal(t, tt.wantPeak, report.SyntheticPeak)
			assert.Equal(t, tt.wantWindow, report.Window)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		synthetic contracts.HourlySeries
		corrected contracts.HourlySeries
		profile   contracts.HourlySeries
		wantErr   error
	}{
		{
			name:      "no overlap",
			synthetic: contracts.HourlySeries{1, 2},
			corrected: nil,
			profile:   contracts.HourlySeries{1, 2},
			wantErr:   contracts.ErrRangeMismatch,
		},
		{
			name:      "every overlapping hour missing",
			synthetic: contracts.HourlySeries{500, 10},
			corrected: contracts.HourlySeries{math.NaN(), math.NaN()},
			profile:   contracts.HourlySeries{100, 100},
			wantErr:   contracts.ErrRangeMismatch,
		},
		{
			name:      "zero profile",
			synthetic: contracts.HourlySeries{1, 2},
			corrected: contracts.HourlySeries{1, 2},
			profile:   contracts.HourlySeries{1, 0},
			wantErr:   contracts.ErrDegenerateProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Evaluate(tt.synthetic, tt.corrected, tt.profile)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
		})
	}

	// a zero beyond the window is never divided by
	_, err := Evaluate(contracts.HourlySeries{1}, contracts.HourlySeries{1}, contracts.HourlySeries{1, 0})
	assert.NoError(t, err)
}

func TestSummarizePeaks(t *testing.T) {
	peaks := make([]float64, 100)
	for i := range peaks {
		peaks[i] = float64(100 - i)
	}

	ps, err := SummarizePeaks(peaks)
	require.NoError(t, err)
	assert.Equal(t, 100, ps.Runs)
	assert.InDelta(t, 50.5, ps.Mean, 1e-9)
	assert.Equal(t, 1.0, ps.Min)
	assert.Equal(t, 100.0, ps.Max)
	assert.InDelta(t, 50.0, ps.P50, 1)
	assert.InDelta(t, 90.0, ps.P90, 1)
	assert.InDelta(t, 99.0, ps.P99, 1)
	assert.Greater(t, ps.StdDev, 0.0)

	// input order untouched
	assert.Equal(t, 100.0, peaks[0])

	_, err = SummarizePeaks(nil)
	assert.Error(t, err)
}
