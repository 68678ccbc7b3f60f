package s1_curves

import (
	"fmt"

	"github.com/wonny/loadsynth/internal/calendar"
	"github.com/wonny/loadsynth/internal/contracts"
)

// CurveSet is a normalized variation-curve set.
// Level returns the ceiling multiplier (fraction of the global peak) for one calendar slot.
type CurveSet interface {
	Level(month int, dayType contracts.DayType, hour int) float64
	Variant() contracts.CurveVariant
	curveSet()
}

// MonthlyCurves variant A: monthly max plus one weekday and one weekend daily shape
type MonthlyCurves struct {
	MonthlyMax [contracts.MonthsPerYear]float64 `json:"monthly_max"`
	Weekday    [contracts.HoursPerDay]float64   `json:"weekday"`
	Weekend    [contracts.HoursPerDay]float64   `json:"weekend"`
}

// Level = monthly max × daily shape
func (c *MonthlyCurves) Level(month int, dayType contracts.DayType, hour int) float64 {
	if dayType == contracts.Weekend {
		return c.MonthlyMax[month] * c.Weekend[hour]
	}
	return c.MonthlyMax[month] * c.Weekday[hour]
}

// Variant returns VariantMonthly
func (c *MonthlyCurves) Variant() contracts.CurveVariant { return contracts.VariantMonthly }

func (*MonthlyCurves) curveSet() {}

// MatrixCurves variant B: one averaged 24h shape per (month, day type).
// The monthly scale is carried by the shapes themselves.
type MatrixCurves struct {
	Weekday [contracts.MonthsPerYear][contracts.HoursPerDay]float64 `json:"weekday"`
	Weekend [contracts.MonthsPerYear][contracts.HoursPerDay]float64 `json:"weekend"`
}

// Level = matrix entry
func (c *MatrixCurves) Level(month int, dayType contracts.DayType, hour int) float64 {
	if dayType == contracts.Weekend {
		return c.Weekend[month][hour]
	}
	return c.Weekday[month][hour]
}

// Variant returns VariantMatrix
func (c *MatrixCurves) Variant() contracts.CurveVariant { return contracts.VariantMatrix }

func (*MatrixCurves) curveSet() {}

// Extractor derives a CurveSet from a corrected series.
// The calendar supplies the start day; the series length decides how many years are read.
type Extractor interface {
	Extract(corrected contracts.HourlySeries, cal calendar.Calendar) (CurveSet, error)
}

// ExtractorFor resolves a variant once, at pipeline construction
func ExtractorFor(variant contracts.CurveVariant) (Extractor, error) {
	switch variant {
	case contracts.VariantMonthly:
		return MonthlyExtractor{}, nil
	case contracts.VariantMatrix:
		return MatrixExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: curve variant %q", contracts.ErrUnknownVariant, variant)
	}
}

// normalizer validates the input and returns its global peak
func normalizer(corrected contracts.HourlySeries) (float64, error) {
	if _, err := corrected.Years(); err != nil {
		return 0, err
	}
	peak := corrected.Peak()
	if !(peak > 0) {
		return 0, fmt.Errorf("%w: global peak %v", contracts.ErrInvalidPeak, peak)
	}
	return peak, nil
}
