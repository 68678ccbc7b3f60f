package s0_correction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// DefaultBaseTempC is the heating threshold used when none is configured
const DefaultBaseTempC = 17.0

// DegreeDay corrects load with a heating degree-hour regression.
//
//	hdh[t]       = max(0, base - temp[t])
//	load[t]      ≈ a + b·hdh[t]
//	corrected[t] = load[t] - b·(hdh[t] - hdhNormal[t])
//
// hdhNormal comes from Normal (a normal-year temperature series, 8760 values or one per
// input hour) or, when Normal is nil, from the mean hdh at the same hour-of-year across
// the supplied years. A single year without Normal fails with ErrNoNormalYear: its own
// mean is the measured year and the correction would be zero.
type DegreeDay struct {
	Temperatures contracts.HourlySeries
	Normal       contracts.HourlySeries
	BaseTempC    float64
}

// Fit is the fitted load/temperature relation
type Fit struct {
	Intercept   float64 `json:"intercept"`
	Sensitivity float64 `json:"sensitivity"` // load units per degree-hour
	Samples     int     `json:"samples"`
}

// Correct applies the degree-hour correction
func (d *DegreeDay) Correct(raw contracts.HourlySeries, _ calendar.Calendar) (contracts.HourlySeries, error) {
	out, _, err := d.CorrectWithFit(raw)
	return out, err
}

// CorrectWithFit applies the correction and returns the regression it used
func (d *DegreeDay) CorrectWithFit(raw contracts.HourlySeries) (contracts.HourlySeries, Fit, error) {
	fit, hdh, err := d.fit(raw)
	if err != nil {
		return nil, Fit{}, err
	}

	normal, err := d.normalDegreeHours(hdh)
	if err != nil {
		return nil, Fit{}, err
	}

	out := make(contracts.HourlySeries, len(raw))
	for t, v := range raw {
		if math.IsNaN(v) || math.IsNaN(hdh[t]) || math.IsNaN(normal[t]) {
			out[t] = v
			continue
		}
		out[t] = v - fit.Sensitivity*(hdh[t]-normal[t])
	}
	return out, fit, nil
}

// Fit estimates the load sensitivity to heating degree-hours
func (d *DegreeDay) Fit(raw contracts.HourlySeries) (Fit, error) {
	fit, _, err := d.fit(raw)
	return fit, err
}

func (d *DegreeDay) fit(raw contracts.HourlySeries) (Fit, []float64, error) {
	if _, err := raw.Years(); err != nil {
		return Fit{}, nil, err
	}
	if len(d.Temperatures) != len(raw) {
		return Fit{}, nil, fmt.Errorf("%w: %d temperatures for %d load samples",
			contracts.ErrDataLengthMismatch, len(d.Temperatures), len(raw))
	}

	hdh := d.degreeHours(d.Temperatures)

	xs := make([]float64, 0, len(raw))
	ys := make([]float64, 0, len(raw))
	for t, v := range raw {
		if math.IsNaN(v) || math.IsNaN(hdh[t]) {
			continue
		}
		xs = append(xs, hdh[t])
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return Fit{}, nil, fmt.Errorf("%w: %d paired load/temperature samples, need 2",
			contracts.ErrInsufficientData, len(xs))
	}

	// no heating hours, or constant heating: no weather signal to remove
	if stat.Variance(xs, nil) == 0 {
		return Fit{Intercept: stat.Mean(ys, nil), Samples: len(xs)}, hdh, nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Fit{Intercept: alpha, Sensitivity: beta, Samples: len(xs)}, hdh, nil
}

func (d *DegreeDay) base() float64 {
	if d.BaseTempC == 0 {
		return DefaultBaseTempC
	}
	return d.BaseTempC
}

func (d *DegreeDay) degreeHours(temps contracts.HourlySeries) []float64 {
	base := d.base()
	hdh := make([]float64, len(temps))
	for t, temp := range temps {
		if math.IsNaN(temp) {
			hdh[t] = math.NaN()
			continue
		}
		hdh[t] = math.Max(0, base-temp)
	}
	return hdh
}

// normalDegreeHours returns the reference degree-hours aligned to hdh
func (d *DegreeDay) normalDegreeHours(hdh []float64) ([]float64, error) {
	out := make([]float64, len(hdh))

	if d.Normal != nil {
		if len(d.Normal) != contracts.HoursPerYear && len(d.Normal) != len(hdh) {
			return nil, fmt.Errorf("%w: normal temperatures have %d samples, need %d or %d",
				contracts.ErrDataLengthMismatch, len(d.Normal), contracts.HoursPerYear, len(hdh))
		}
		normal := d.degreeHours(d.Normal)
		for t := range out {
			out[t] = normal[t%len(normal)]
		}
		return out, nil
	}

	if len(hdh) <= contracts.HoursPerYear {
		return nil, fmt.Errorf("%w: one measured year needs normal-year temperatures", contracts.ErrNoNormalYear)
	}

	// mean over years at each hour-of-year
	var sums, counts [contracts.HoursPerYear]float64
	for t, v := range hdh {
		if math.IsNaN(v) {
			continue
		}
		sums[t%contracts.HoursPerYear] += v
		counts[t%contracts.HoursPerYear]++
	}
	for t := range out {
		h := t % contracts.HoursPerYear
		if counts[h] == 0 {
			out[t] = math.NaN()
			continue
		}
		out[t] = sums[h] / counts[h]
	}
	return out, nil
}

// MeanYear averages a multi-year series into one year, hour-of-year by hour-of-year.
// Hours missing in every year stay NaN.
func MeanYear(series contracts.HourlySeries) (contracts.HourlySeries, error) {
	if _, err := series.Years(); err != nil {
		return nil, err
	}

	var sums, counts [contracts.HoursPerYear]float64
	for t, v := range series {
		if math.IsNaN(v) {
			continue
		}
		sums[t%contracts.HoursPerYear] += v
		counts[t%contracts.HoursPerYear]++
	}

	out := make(contracts.HourlySeries, contracts.HoursPerYear)
	for h := range out {
		if counts[h] == 0 {
			out[h] = math.NaN()
			continue
		}
		out[h] = sums[h] / counts[h]
	}
	return out, nil
}
