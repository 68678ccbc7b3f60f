package s1_curves

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

var monday = calendar.Calendar{StartDay: contracts.Monday, NumYears: 1}

// dayTypeSeries is 100 on weekdays and 50 on weekends
func dayTypeSeries(cal calendar.Calendar, years int) contracts.HourlySeries {
	s := make(contracts.HourlySeries, years*contracts.HoursPerYear)
	for t := range s {
		s[t] = 100
		if cal.DayTypeOf(t) == contracts.Weekend {
			s[t] = 50
		}
	}
	return s
}

func TestMonthlyExtractor_WeekdayWeekendSplit(t *testing.T) {
	for _, start := range []contracts.Weekday{contracts.Monday, contracts.Thursday, contracts.Sunday} {
		t.Run(start.String(), func(t *testing.T) {
			cal := calendar.Calendar{StartDay: start, NumYears: 1}
			cs, err := MonthlyExtractor{}.Extract(dayTypeSeries(cal, 1), cal)
			require.NoError(t, err)

			curves := cs.(*MonthlyCurves)
			for m, v := range curves.MonthlyMax {
				assert.Equal(t, 1.0, v, "month %d", m)
			}
			for h := 0; h < contracts.HoursPerDay; h++ {
				assert.InDelta(t, 1.0, curves.Weekday[h], 1e-12)
				assert.InDelta(t, 0.5, curves.Weekend[h], 1e-12)
			}
			assert.Equal(t, contracts.VariantMonthly, cs.Variant())
		})
	}
}

func TestMonthlyExtractor_AlternatingHours(t *testing.T) {
	s := make(contracts.HourlySeries, contracts.HoursPerYear)
	for i := range s {
		s[i] = 100
		if i%2 == 1 {
			s[i] = 50
		}
	}

	cs, err := MonthlyExtractor{}.Extract(s, monday)
	require.NoError(t, err)
	curves := cs.(*MonthlyCurves)

	for m := range curves.MonthlyMax {
		assert.Equal(t, 1.0, curves.MonthlyMax[m])
	}
	for h := 0; h < contracts.HoursPerDay; h++ {
		want := 1.0
		if h%2 == 1 {
			want = 0.5
		}
		assert.InDelta(t, want, curves.Weekday[h], 1e-12, "weekday hour %d", h)
		assert.InDelta(t, want, curves.Weekend[h], 1e-12, "weekend hour %d", h)
	}
}

func TestMatrixExtractor_MonthlyScale(t *testing.T) {
	// month m runs at (m+1)*10 on weekdays and half of that on weekends
	s := make(contracts.HourlySeries, 2*contracts.HoursPerYear)
	cal := calendar.Calendar{StartDay: contracts.Wednesday, NumYears: 2}
	for i := range s {
		v := float64(cal.MonthOf(i)+1) * 10
		if cal.DayTypeOf(i) == contracts.Weekend {
			v /= 2
		}
		s[i] = v
	}

	cs, err := MatrixExtractor{}.Extract(s, cal)
	require.NoError(t, err)
	curves := cs.(*MatrixCurves)
	assert.Equal(t, contracts.VariantMatrix, cs.Variant())

	for m := 0; m < contracts.MonthsPerYear; m++ {
		for h := 0; h < contracts.HoursPerDay; h++ {
			assert.InDelta(t, float64(m+1)/12, curves.Weekday[m][h], 1e-12)
			assert.InDelta(t, float64(m+1)/24, curves.Weekend[m][h], 1e-12)
			assert.InDelta(t, curves.Weekend[m][h], cs.Level(m, contracts.Weekend, h), 1e-12)
		}
	}
}

func TestCurvesWithinUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := make(contracts.HourlySeries, 3*contracts.HoursPerYear)
	for i := range s {
		s[i] = rng.Float64() * 500
	}
	cal := calendar.Calendar{StartDay: contracts.Friday, NumYears: 3}

	for _, variant := range []contracts.CurveVariant{contracts.VariantMonthly, contracts.VariantMatrix} {
		t.Run(string(variant), func(t *testing.T) {
			ex, err := ExtractorFor(variant)
			require.NoError(t, err)
			cs, err := ex.Extract(s, cal)
			require.NoError(t, err)

			for m := 0; m < contracts.MonthsPerYear; m++ {
				for _, dt := range []contracts.DayType{contracts.Workday, contracts.Weekend} {
					for h := 0; h < contracts.HoursPerDay; h++ {
						v := cs.Level(m, dt, h)
						require.GreaterOrEqual(t, v, 0.0)
						require.LessOrEqual(t, v, 1.0)
					}
				}
			}
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	missingMarch := dayTypeSeries(monday, 1)
	from, to := calendar.MonthRange(0, 2)
	for i := from; i < to; i++ {
		missingMarch[i] = math.NaN()
	}

	missingWeekendNoon := dayTypeSeries(monday, 1)
	for i := range missingWeekendNoon {
		if monday.DayTypeOf(i) == contracts.Weekend && calendar.HourOfDay(i) == 12 {
			missingWeekendNoon[i] = math.NaN()
		}
	}

	tests := []struct {
		name    string
		variant contracts.CurveVariant
		input   contracts.HourlySeries
		wantErr error
	}{
		{name: "A empty", variant: contracts.VariantMonthly, input: nil, wantErr: contracts.ErrDataLengthMismatch},
		{name: "B short", variant: contracts.VariantMatrix, input: make(contracts.HourlySeries, 8000), wantErr: contracts.ErrDataLengthMismatch},
		{name: "A zero peak", variant: contracts.VariantMonthly, input: make(contracts.HourlySeries, contracts.HoursPerYear), wantErr: contracts.ErrInvalidPeak},
		{name: "B negative peak", variant: contracts.VariantMatrix, input: constant(-5), wantErr: contracts.ErrInvalidPeak},
		{name: "A all missing", variant: contracts.VariantMonthly, input: constant(math.NaN()), wantErr: contracts.ErrInvalidPeak},
		{name: "A missing month", variant: contracts.VariantMonthly, input: missingMarch, wantErr: contracts.ErrInsufficientData},
		{name: "B missing month", variant: contracts.VariantMatrix, input: missingMarch, wantErr: contracts.ErrInsufficientData},
		{name: "A missing weekend hour", variant: contracts.VariantMonthly, input: missingWeekendNoon, wantErr: contracts.ErrInsufficientData},
		{name: "B missing weekend hour", variant: contracts.VariantMatrix, input: missingWeekendNoon, wantErr: contracts.ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := ExtractorFor(tt.variant)
			require.NoError(t, err)
			_, err = ex.Extract(tt.input, monday)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtractorFor_Unknown(t *testing.T) {
	_, err := ExtractorFor("C")
	assert.ErrorIs(t, err, contracts.ErrUnknownVariant)
}

func TestMonthlyCurves_Level(t *testing.T) {
	c := &MonthlyCurves{}
	c.MonthlyMax[5] = 0.8
	c.Weekday[9] = 0.5
	c.Weekend[9] = 0.25

	assert.InDelta(t, 0.4, c.Level(5, contracts.Workday, 9), 1e-12)
	assert.InDelta(t, 0.2, c.Level(5, contracts.Weekend, 9), 1e-12)
	assert.Equal(t, 0.0, c.Level(4, contracts.Workday, 9))
}

func constant(v float64) contracts.HourlySeries {
	s := make(contracts.HourlySeries, contracts.HoursPerYear)
	for i := range s {
		s[i] = v
	}
	return s
}
