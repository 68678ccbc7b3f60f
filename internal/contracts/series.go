package contracts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Calendar conventions (non-leap years)
const (
	HoursPerDay   = 24
	DaysPerYear   = 365
	HoursPerYear  = HoursPerDay * DaysPerYear // 8760
	MonthsPerYear = 12
)

// HourlySeries is one power value per hour.
// A series handed from one stage to the next is never mutated; stages return new slices.
// NaN marks a missing reading.
type HourlySeries []float64

// Len returns the number of hourly samples
func (s HourlySeries) Len() int {
	return len(s)
}

// Clone returns an independent copy
func (s HourlySeries) Clone() HourlySeries {
	if s == nil {
		return nil
	}
	out := make(HourlySeries, len(s))
	copy(out, s)
	return out
}

// Years returns how many whole years the series spans.
// Fails with ErrDataLengthMismatch unless the length is a positive multiple of 8760.
func (s HourlySeries) Years() (int, error) {
	if len(s) == 0 || len(s)%HoursPerYear != 0 {
		return 0, fmt.Errorf("%w: got %d samples, need a positive multiple of %d",
			ErrDataLengthMismatch, len(s), HoursPerYear)
	}
	return len(s) / HoursPerYear, nil
}

// Peak returns the largest non-missing value, or NaN when every sample is missing.
func (s HourlySeries) Peak() float64 {
	peak := math.NaN()
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(peak) || v > peak {
			peak = v
		}
	}
	return peak
}

// Missing reports whether the sample at t is a missing reading
func (s HourlySeries) Missing(t int) bool {
	return math.IsNaN(s[t])
}

// =============================================================================
// Day typing
// =============================================================================

// Weekday identifies the day of week, Monday first
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// String returns the lower-case English day name
func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return "weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// Valid reports whether d is Monday..Sunday
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseWeekday accepts full names, three-letter abbreviations, or ISO numbers 1 (Mon) to 7 (Sun)
func ParseWeekday(s string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return Weekday(i), nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 7 {
		return Weekday(n - 1), nil
	}
	return 0, fmt.Errorf("unrecognized weekday %q", s)
}

// DayType separates weekdays from weekends
type DayType int

const (
	Workday DayType = iota
	Weekend
)

// String returns the day type name
func (d DayType) String() string {
	if d == Weekend {
		return "weekend"
	}
	return "weekday"
}

// =============================================================================
// Variant selectors
// =============================================================================

// CurveVariant selects the variation-curve estimation
type CurveVariant string

const (
	// VariantMonthly monthly max + weekday/weekend daily shape ("A")
	VariantMonthly CurveVariant = "A"
	// VariantMatrix per (month, day-type) 24h shape ("B")
	VariantMatrix CurveVariant = "B"
)

// DeviationMode selects how residuals are pooled
type DeviationMode string

const (
	// ModeShared one pooled distribution ("felles")
	ModeShared DeviationMode = "shared"
	// ModeIndividual 24 per-hour-of-day distributions ("individuell")
	ModeIndividual DeviationMode = "individual"
)

// ParseCurveVariant normalizes a variant selector
func ParseCurveVariant(s string) (CurveVariant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return VariantMonthly, nil
	case "B":
		return VariantMatrix, nil
	}
	return "", fmt.Errorf("%w: curve variant %q", ErrUnknownVariant, s)
}

// ParseDeviationMode normalizes a deviation mode selector.
// Norwegian aliases (felles, individuell) are accepted.
func ParseDeviationMode(s string) (DeviationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared", "felles":
		return ModeShared, nil
	case "individual", "individuell":
		return ModeIndividual, nil
	}
	return "", fmt.Errorf("%w: deviation mode %q", ErrUnknownVariant, s)
}
