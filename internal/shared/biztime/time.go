// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. Business timezone is only used for
// calculating date boundaries (start/end of day, month, quarter, year).
//
// Design principles:
// - All time storage is in UTC
// - All business statistics must explicitly specify business timezone
// - Day/month statistics must calculate business timezone boundaries first, then convert to UTC for queries
// - Implicit Local timezone is prohibited
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "Asia/Shanghai"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
// If tz is empty, defaults to Asia/Shanghai.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone location.
// If not explicitly initialized, automatically initializes with the default timezone.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Window is a half-open statistics window [Start, End) in UTC. End is the
// start of the next period, so consumers compare with `< End`.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartOfDayUTC returns the start of day (00:00:00) in business timezone, converted to UTC.
func StartOfDayUTC(t time.Time) time.Time {
	bizTime := t.In(Location())
	startOfDay := time.Date(bizTime.Year(), bizTime.Month(), bizTime.Day(), 0, 0, 0, 0, Location())
	return startOfDay.UTC()
}

// EndOfDayUTC returns the start of the next day (exclusive day end) in
// business timezone, converted to UTC.
func EndOfDayUTC(t time.Time) time.Time {
	bizTime := t.In(Location())
	startOfDay := time.Date(bizTime.Year(), bizTime.Month(), bizTime.Day(), 0, 0, 0, 0, Location())
	return startOfDay.AddDate(0, 0, 1).UTC()
}

// DayWindow returns the business-day window containing t.
func DayWindow(t time.Time) Window {
	return Window{Start: StartOfDayUTC(t), End: EndOfDayUTC(t)}
}

// MonthWindow returns the business-month window containing t.
func MonthWindow(t time.Time) Window {
	bizTime := t.In(Location())
	start := time.Date(bizTime.Year(), bizTime.Month(), 1, 0, 0, 0, 0, Location())
	end := start.AddDate(0, 1, 0)
	return Window{Start: start.UTC(), End: end.UTC()}
}

// QuarterWindow returns the business-quarter window containing t.
// Quarters start in January, April, July and October.
func QuarterWindow(t time.Time) Window {
	bizTime := t.In(Location())
	quarterMonth := time.Month(((int(bizTime.Month())-1)/3)*3 + 1)
	start := time.Date(bizTime.Year(), quarterMonth, 1, 0, 0, 0, 0, Location())
	end := start.AddDate(0, 3, 0)
	return Window{Start: start.UTC(), End: end.UTC()}
}

// YearWindow returns the business-year window containing t.
func YearWindow(t time.Time) Window {
	bizTime := t.In(Location())
	start := time.Date(bizTime.Year(), 1, 1, 0, 0, 0, 0, Location())
	end := start.AddDate(1, 0, 0)
	return Window{Start: start.UTC(), End: end.UTC()}
}

// IsMonthStart reports whether t falls on the first business day of a month.
func IsMonthStart(t time.Time) bool {
	return t.In(Location()).Day() == 1
}

// IsQuarterStart reports whether t falls on the first business day of a quarter.
func IsQuarterStart(t time.Time) bool {
	bizTime := t.In(Location())
	if bizTime.Day() != 1 {
		return false
	}
	switch bizTime.Month() {
	case time.January, time.April, time.July, time.October:
		return true
	}
	return false
}

// IsYearStart reports whether t falls on the first business day of a year.
func IsYearStart(t time.Time) bool {
	bizTime := t.In(Location())
	return bizTime.Month() == time.January && bizTime.Day() == 1
}

// ToBizTimezone converts a UTC time to business timezone for display.
func ToBizTimezone(t time.Time) time.Time {
	return t.In(Location())
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// ParseDateInBizTimezone parses a date string (YYYY-MM-DD) as business timezone midnight,
// then returns the UTC equivalent.
func ParseDateInBizTimezone(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", dateStr, Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format %q: %w", dateStr, err)
	}
	return t.UTC(), nil
}

// FormatDateInBizTimezone formats a UTC time as a YYYY-MM-DD date string in business timezone.
func FormatDateInBizTimezone(t time.Time) string {
	return t.In(Location()).Format("2006-01-02")
}

// FormatInBizTimezone formats a UTC time as a string in business timezone.
func FormatInBizTimezone(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
