package s0_correction

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

var cal = calendar.Calendar{StartDay: contracts.Monday, NumYears: 1}

func series(n int, f func(t int) float64) contracts.HourlySeries {
	s := make(contracts.HourlySeries, n)
	for t := range s {
		s[t] = f(t)
	}
	return s
}

func TestIdentity(t *testing.T) {
	raw := series(contracts.HoursPerYear, func(t int) float64 { return float64(t % 24) })

	out, err := Identity{}.Correct(raw, cal)
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	// value semantics: output does not alias input
	out[0] = -1
	assert.Equal(t, 0.0, raw[0])
}

func TestCorrect_LengthMismatch(t *testing.T) {
	tests := []struct {
		name string
		c    Corrector
		raw  contracts.HourlySeries
	}{
		{name: "identity empty", c: Identity{}, raw: nil},
		{name: "identity partial year", c: Identity{}, raw: make(contracts.HourlySeries, 100)},
		{
			name: "degree day temperature length",
			c:    &DegreeDay{Temperatures: make(contracts.HourlySeries, 10)},
			raw:  make(contracts.HourlySeries, contracts.HoursPerYear),
		},
		{
			name: "degree day normal length",
			c: &DegreeDay{
				Temperatures: series(contracts.HoursPerYear, func(t int) float64 { return float64(t % 24) }),
				Normal:       make(contracts.HourlySeries, 24),
			},
			raw: series(contracts.HoursPerYear, func(t int) float64 { return float64(t % 7) }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.c.Correct(tt.raw, cal)
			assert.ErrorIs(t, err, contracts.ErrDataLengthMismatch)
		})
	}
}

func TestDegreeDay_ZeroSensitivityIsIdentity(t *testing.T) {
	tests := []struct {
		name  string
		raw   contracts.HourlySeries
		temps contracts.HourlySeries
	}{
		{
			// never below base temperature: no heating signal at all
			name:  "warm year",
			raw:   series(2*contracts.HoursPerYear, func(t int) float64 { return 60 + 20*math.Sin(float64(t)/24) }),
			temps: series(2*contracts.HoursPerYear, func(int) float64 { return 22 }),
		},
		{
			// heating varies but load does not follow it
			name:  "uncorrelated",
			raw:   series(2*contracts.HoursPerYear, func(int) float64 { return 80 }),
			temps: series(2*contracts.HoursPerYear, func(t int) float64 { return float64(t%5) - float64(t/contracts.HoursPerYear) }),
		},
	}

	two := calendar.Calendar{StartDay: contracts.Monday, NumYears: 2}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &DegreeDay{Temperatures: tt.temps, BaseTempC: 17}
			out, err := d.Correct(tt.raw, two)
			require.NoError(t, err)

			if diff := cmp.Diff([]float64(tt.raw), []float64(out), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("corrected series differs (-want +got):\n%s", diff)
			}

			// applying the correction again changes nothing
			again, err := d.Correct(out, two)
			require.NoError(t, err)
			if diff := cmp.Diff([]float64(out), []float64(again), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("second pass differs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDegreeDay_RemovesWeatherSwing(t *testing.T) {
	n := 2 * contracts.HoursPerYear
	// second year is 5 degrees colder
	temps := series(n, func(t int) float64 {
		temp := float64(t % 24)
		if t >= contracts.HoursPerYear {
			temp -= 5
		}
		return temp
	})
	raw := series(n, func(t int) float64 {
		return 50 + 2*math.Max(0, 17-temps[t])
	})

	d := &DegreeDay{Temperatures: temps, BaseTempC: 17}

	fit, err := d.Fit(raw)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Sensitivity, 1e-6)
	assert.InDelta(t, 50.0, fit.Intercept, 1e-6)
	assert.Equal(t, n, fit.Samples)

	out, err := d.Correct(raw, calendar.Calendar{StartDay: contracts.Monday, NumYears: 2})
	require.NoError(t, err)
	require.Len(t, out, n)

	for h := 0; h < contracts.HoursPerYear; h += 97 {
		assert.InDelta(t, out[h], out[h+contracts.HoursPerYear], 1e-6, "hour-of-year %d", h)
	}
	assert.Less(t, out.Peak(), raw.Peak())
}

func TestDegreeDay_NormalYear(t *testing.T) {
	temps := series(contracts.HoursPerYear, func(t int) float64 { return float64(t%24) - 10 })
	raw := series(contracts.HoursPerYear, func(t int) float64 { return 10 + 1.5*math.Max(0, 17-temps[t]) })
	normal := series(contracts.HoursPerYear, func(int) float64 { return 17 })

	d := &DegreeDay{Temperatures: temps, Normal: normal, BaseTempC: 17}
	out, err := d.Correct(raw, cal)
	require.NoError(t, err)

	// normal year has no heating demand, only the base load remains
	for _, v := range out[:48] {
		assert.InDelta(t, 10.0, v, 1e-6)
	}
}

func TestDegreeDay_MissingReadings(t *testing.T) {
	temps := series(contracts.HoursPerYear, func(t int) float64 { return float64(t % 24) })
	raw := series(contracts.HoursPerYear, func(t int) float64 { return 40 + math.Max(0, 17-temps[t]) })
	raw[3] = math.NaN()
	temps[4] = math.NaN()

	normal := series(contracts.HoursPerYear, func(int) float64 { return 17 })

	out, err := (&DegreeDay{Temperatures: temps, Normal: normal}).Correct(raw, cal)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out[3]))
	assert.Equal(t, raw[4], out[4])
}

func TestDegreeDay_SingleYear(t *testing.T) {
	temps := series(contracts.HoursPerYear, func(t int) float64 { return float64(t%24) - 6 })
	raw := series(contracts.HoursPerYear, func(t int) float64 { return 50 + 3*math.Max(0, 17-temps[t]) })

	t.Run("without normal year", func(t *testing.T) {
		d := &DegreeDay{Temperatures: temps, BaseTempC: 17}
		_, err := d.Correct(raw, cal)
		assert.ErrorIs(t, err, contracts.ErrNoNormalYear)

		// the fit alone still works
		fit, err := d.Fit(raw)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, fit.Sensitivity, 1e-6)
	})

	t.Run("with normal year", func(t *testing.T) {
		// normal year 4 degrees warmer than the measured one
		normal := series(contracts.HoursPerYear, func(t int) float64 { return temps[t] + 4 })
		d := &DegreeDay{Temperatures: temps, Normal: normal, BaseTempC: 17}

		out, fit, err := d.CorrectWithFit(raw)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, fit.Sensitivity, 1e-6)

		// coldest hour: temp -6, hdh 23 measured vs 19 normal
		assert.InDelta(t, raw.Peak()-12, out.Peak(), 1e-6)
		assert.NotEqual(t, raw, out)
	})
}

func TestDegreeDay_InsufficientData(t *testing.T) {
	temps := series(contracts.HoursPerYear, func(int) float64 { return math.NaN() })
	raw := series(contracts.HoursPerYear, func(int) float64 { return 1 })

	_, err := (&DegreeDay{Temperatures: temps}).Correct(raw, cal)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestForMethod(t *testing.T) {
	temps := make(contracts.HourlySeries, contracts.HoursPerYear)

	c, err := ForMethod("", nil, nil, 0)
	require.NoError(t, err)
	assert.IsType(t, Identity{}, c)

	c, err = ForMethod(MethodDegreeDay, temps, nil, 15)
	require.NoError(t, err)
	require.IsType(t, &DegreeDay{}, c)
	assert.Equal(t, 15.0, c.(*DegreeDay).BaseTempC)

	_, err = ForMethod(MethodDegreeDay, nil, nil, 15)
	assert.Error(t, err)

	_, err = ForMethod("cooling", temps, nil, 15)
	assert.ErrorIs(t, err, contracts.ErrUnknownVariant)
}

func TestMeanYear(t *testing.T) {
	s := series(3*contracts.HoursPerYear, func(t int) float64 { return float64(t / contracts.HoursPerYear) })
	s[contracts.HoursPerYear+5] = math.NaN()
	for y := 0; y < 3; y++ {
		s[y*contracts.HoursPerYear+9] = math.NaN()
	}

	mean, err := MeanYear(s)
	require.NoError(t, err)
	require.Len(t, mean, contracts.HoursPerYear)
	assert.InDelta(t, 1.0, mean[0], 1e-12)
	assert.InDelta(t, 1.0, mean[5], 1e-12, "missing reading skipped")
	assert.True(t, math.IsNaN(mean[9]))

	_, err = MeanYear(make(contracts.HourlySeries, 100))
	assert.ErrorIs(t, err, contracts.ErrDataLengthMismatch)
}
