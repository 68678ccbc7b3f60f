package modelconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
)

func TestLoad(t *testing.T) {
	cfg, yamlData, err := Load("testdata/feeder_a.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, yamlData)

	assert.Equal(t, "feeder_a", cfg.Meta.ModelID)
	assert.Equal(t, contracts.Monday, cfg.StartWeekday())
	assert.Equal(t, 3, cfg.Calendar.NumYears)
	assert.Equal(t, time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime())
	assert.Equal(t, contracts.VariantMonthly, cfg.CurveVariant())
	// alias normalized
	assert.Equal(t, "individual", cfg.Deviation.Mode)
	assert.Equal(t, contracts.ModeIndividual, cfg.DeviationMode())
	require.NotNil(t, cfg.Synthesis.Seed)
	assert.Equal(t, uint64(42), *cfg.Synthesis.Seed)

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`
meta: {model_id: x}
calendar: {start_day: monday, num_years: 1}
curves: {variant: A, smoothing: 3}
deviation: {mode: shared}
`))
	assert.Error(t, err)
}

func TestMerge_Overrides(t *testing.T) {
	base := Default()
	seed := uint64(7)
	base.Synthesis.Seed = &seed

	cfg, err := Merge(base, []byte(`{"curves": {"variant": "b"}, "calendar": {"num_years": 2}}`))
	require.NoError(t, err)

	assert.Equal(t, "B", cfg.Curves.Variant)
	assert.Equal(t, 2, cfg.Calendar.NumYears)
	assert.Equal(t, "monday", cfg.Calendar.StartDay)
	assert.Equal(t, uint64(7), *cfg.Synthesis.Seed)

	// base is untouched
	assert.Equal(t, "A", base.Curves.Variant)
	assert.Equal(t, 1, base.Calendar.NumYears)
	assert.NotSame(t, base.Synthesis.Seed, cfg.Synthesis.Seed)

	same, err := Merge(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base.Curves, same.Curves)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "missing model id", mutate: func(c *Config) { c.Meta.ModelID = "" }, wantField: "meta.model_id"},
		{name: "bad start day", mutate: func(c *Config) { c.Calendar.StartDay = "someday" }, wantField: "calendar.start_day"},
		{name: "zero years", mutate: func(c *Config) { c.Calendar.NumYears = 0 }, wantField: "calendar.num_years"},
		{name: "bad date", mutate: func(c *Config) { c.Calendar.StartDate = "01.01.2030" }, wantField: "calendar.start_date"},
		// 2030-01-01 is a Tuesday
		{name: "date weekday mismatch", mutate: func(c *Config) { c.Calendar.StartDate = "2030-01-01" }, wantField: "calendar.start_date"},
		{name: "bad method", mutate: func(c *Config) { c.Correction.Method = "hdd" }, wantField: "correction.method"},
		{
			name: "base temp out of range",
			mutate: func(c *Config) {
				c.Correction.Method = "degree_day"
				c.Correction.BaseTempC = 55
			},
			wantField: "correction.base_temp_c",
		},
		{name: "negative normal years", mutate: func(c *Config) { c.Correction.NormalYears = -1 }, wantField: "correction.normal_years"},
		{name: "bad variant", mutate: func(c *Config) { c.Curves.Variant = "C" }, wantField: "curves.variant"},
		{name: "bad mode", mutate: func(c *Config) { c.Deviation.Mode = "pooled" }, wantField: "deviation.mode"},
		{name: "negative workers", mutate: func(c *Config) { c.Synthesis.Workers = -1 }, wantField: "synthesis.workers"},
		{name: "negative block", mutate: func(c *Config) { c.Synthesis.BlockHours = -24 }, wantField: "synthesis.block_hours"},
		{name: "huge ensemble", mutate: func(c *Config) { c.Synthesis.EnsembleRuns = 1_000_000 }, wantField: "synthesis.ensemble_runs"},
		{name: "negative target", mutate: func(c *Config) { c.Scaling.TargetPeakKW = -1 }, wantField: "scaling.target_peak_kw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	assert.NoError(t, Validate(Default()))
}

func TestWarn(t *testing.T) {
	cfg := Default()
	codes := func(ws []Warning) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.Code)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"NO_SEED", "NO_CORRECTION"}, codes(Warn(cfg)))

	seed := uint64(1)
	cfg.Synthesis.Seed = &seed
	cfg.Correction.Method = "degree_day"
	cfg.Synthesis.BlockHours = 100
	assert.ElementsMatch(t, []string{"NO_STATION", "NO_NORMAL_YEAR", "PARTIAL_DAY_BLOCK"}, codes(Warn(cfg)))

	cfg.Correction.NormalYears = 10
	assert.ElementsMatch(t, []string{"NO_STATION", "PARTIAL_DAY_BLOCK"}, codes(Warn(cfg)))
}

func TestNewRunSnapshot(t *testing.T) {
	cfg := Default()
	snap, err := NewRunSnapshot(cfg, nil, "feeder_a")
	require.NoError(t, err)

	assert.Len(t, snap.ConfigHash, 64)
	assert.Equal(t, "default", snap.ModelID)
	assert.Equal(t, "feeder_a", snap.LoadPointID)
	assert.Contains(t, snap.ConfigYAML, "variant: A")

	// the rendered YAML round-trips to the same hash
	back, err := Parse([]byte(snap.ConfigYAML))
	require.NoError(t, err)
	hash, err := Hash(back)
	require.NoError(t, err)
	assert.Equal(t, snap.ConfigHash, hash)
}
