package calendar

import (
	"fmt"

	"github.com/wonny/loadsynth/internal/contracts"
)

// monthStart is the first day-of-year of each month in a 365-day year; the 13th entry closes December.
var monthStart = [contracts.MonthsPerYear + 1]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// Calendar maps hourly indices to calendar slots.
// ⭐ SSOT: every stage types days through this package so weekday/weekend tagging never diverges.
type Calendar struct {
	StartDay contracts.Weekday `json:"start_day"`
	NumYears int               `json:"num_years"`
}

// Slot is the calendar position of one hourly index
type Slot struct {
	Year      int
	DayOfYear int // 0-364
	Month     int // 0-11
	HourOfDay int // 0-23
	Weekday   contracts.Weekday
	DayType   contracts.DayType
}

// New validates and returns a calendar
func New(start contracts.Weekday, numYears int) (Calendar, error) {
	if !start.Valid() {
		return Calendar{}, fmt.Errorf("invalid start day %d", int(start))
	}
	if numYears <= 0 {
		return Calendar{}, fmt.Errorf("%w: num_years must be positive, got %d",
			contracts.ErrDataLengthMismatch, numYears)
	}
	return Calendar{StartDay: start, NumYears: numYears}, nil
}

// Len is the length of every series produced for this calendar (8760 * NumYears)
func (c Calendar) Len() int {
	return contracts.HoursPerYear * c.NumYears
}

// Locate resolves index t. It is defined for any t >= 0, not only t < Len(),
// so a measured series and a longer synthetic series share one day typing.
func (c Calendar) Locate(t int) Slot {
	dayOfYear := (t % contracts.HoursPerYear) / contracts.HoursPerDay
	weekday := c.WeekdayOf(t)
	return Slot{
		Year:      t / contracts.HoursPerYear,
		DayOfYear: dayOfYear,
		Month:     MonthOfDay(dayOfYear),
		HourOfDay: HourOfDay(t),
		Weekday:   weekday,
		DayType:   dayTypeOf(weekday),
	}
}

// WeekdayOf returns the day of week of index t; weeks run on across year boundaries
func (c Calendar) WeekdayOf(t int) contracts.Weekday {
	day := t / contracts.HoursPerDay
	return contracts.Weekday((int(c.StartDay) + day) % 7)
}

// DayTypeOf returns weekday/weekend for index t
func (c Calendar) DayTypeOf(t int) contracts.DayType {
	return dayTypeOf(c.WeekdayOf(t))
}

// MonthOf returns the month (0-11) of index t
func (c Calendar) MonthOf(t int) int {
	return MonthOfDay((t % contracts.HoursPerYear) / contracts.HoursPerDay)
}

// HourOfDay returns t mod 24; it does not depend on the start day
func HourOfDay(t int) int {
	return t % contracts.HoursPerDay
}

// MonthOfDay maps a day-of-year (0-364) to its month (0-11)
func MonthOfDay(dayOfYear int) int {
	for m := 0; m < contracts.MonthsPerYear; m++ {
		if dayOfYear < monthStart[m+1] {
			return m
		}
	}
	return contracts.MonthsPerYear - 1
}

// DaysInMonth returns the number of days in month m (0-11) of a non-leap year
func DaysInMonth(m int) int {
	return monthStart[m+1] - monthStart[m]
}

// MonthRange returns the half-open hourly index range [from, to) of month m in year y
func MonthRange(y, m int) (from, to int) {
	base := y * contracts.HoursPerYear
	return base + monthStart[m]*contracts.HoursPerDay, base + monthStart[m+1]*contracts.HoursPerDay
}

func dayTypeOf(d contracts.Weekday) contracts.DayType {
	if d == contracts.Saturday || d == contracts.Sunday {
		return contracts.Weekend
	}
	return contracts.Workday
}
