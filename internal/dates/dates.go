// Package dates provides the day-resolution date value used across the
// reporting pipeline, plus the period constructors for weeks, months,
// fiscal quarters and fiscal years.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Fiscal years start on March 1; quarters are three-month blocks of the
// fiscal year (Mar-May, Jun-Aug, Sep-Nov, Dec-Feb).
const fiscalYearStartMonth = time.March

// Date layout formats accepted when parsing user-supplied dates
var dayLayouts = []string{
	"2006-01-02",          // YYYY-MM-DD (ISO 8601 date)
	time.RFC3339,          // RFC3339 format (e.g., 2025-01-15T10:30:00Z)
	"2006-01-02 15:04:05", // Common datetime format
}

// Day is a calendar day with no time-of-day component. The zero value is
// the zero time; all non-zero values are midnight UTC.
type Day struct {
	t time.Time
}

// New creates a Day from year, month and day numbers.
func New(year int, month time.Month, day int) Day {
	return Day{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates a time to its calendar day in UTC.
func FromTime(t time.Time) Day {
	u := t.UTC()
	return New(u.Year(), u.Month(), u.Day())
}

// Today returns the current calendar day.
func Today() Day {
	return FromTime(time.Now())
}

// Parse reads a Day from a string. The literal "today" resolves to the
// current day; otherwise the usual date layouts are tried in order.
func Parse(raw string) (Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	if strings.EqualFold(raw, "today") {
		return Today(), nil
	}
	for _, layout := range dayLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return FromTime(parsed), nil
		}
	}
	return Day{}, fmt.Errorf("invalid date %q, expected the YYYY-MM-DD format", raw)
}

// Add returns the day shifted by the given number of days.
func (d Day) Add(days int) Day {
	return Day{d.t.AddDate(0, 0, days)}
}

// addMonths shifts by whole months, relying on time.Date normalization.
func (d Day) addMonths(months int) Day {
	return New(d.t.Year(), d.t.Month()+time.Month(months), d.t.Day())
}

// Before reports whether d falls before other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// Equal reports whether both values are the same calendar day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// IsZero reports whether the day is the zero value.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the day as midnight UTC.
func (d Day) Time() time.Time {
	return d.t
}

// String renders the day in the YYYY-MM-DD format.
func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

// startOfWeek returns the Monday of the week containing d.
func (d Day) startOfWeek() Day {
	// time.Weekday counts from Sunday; shift so Monday is 0
	offset := (int(d.t.Weekday()) + 6) % 7
	return d.Add(-offset)
}

// fiscalYearStart returns the March 1 opening the fiscal year containing d.
func (d Day) fiscalYearStart() Day {
	year := d.t.Year()
	if d.t.Month() < fiscalYearStartMonth {
		year--
	}
	return New(year, fiscalYearStartMonth, 1)
}

// quarterStart returns the first day of the fiscal quarter containing d.
func (d Day) quarterStart() Day {
	// Months elapsed since the start of the fiscal year (Mar=0 .. Feb=11)
	elapsed := (int(d.t.Month()) - int(fiscalYearStartMonth) + 12) % 12
	return d.fiscalYearStart().addMonths(elapsed - elapsed%3)
}

// ThisWeek returns the Monday-to-Monday range containing today. The upper
// bound is exclusive, as with every period constructor below.
func ThisWeek(today Day) (Day, Day) {
	since := today.startOfWeek()
	return since, since.Add(7)
}

// LastWeek returns the week before the one containing today.
func LastWeek(today Day) (Day, Day) {
	since := today.startOfWeek().Add(-7)
	return since, since.Add(7)
}

// ThisMonth returns the calendar month containing today.
func ThisMonth(today Day) (Day, Day) {
	since := New(today.t.Year(), today.t.Month(), 1)
	return since, since.addMonths(1)
}

// LastMonth returns the calendar month before the one containing today.
func LastMonth(today Day) (Day, Day) {
	until := New(today.t.Year(), today.t.Month(), 1)
	return until.addMonths(-1), until
}

// ThisQuarter returns the fiscal quarter containing today.
func ThisQuarter(today Day) (Day, Day) {
	since := today.quarterStart()
	return since, since.addMonths(3)
}

// LastQuarter returns the fiscal quarter before the one containing today.
func LastQuarter(today Day) (Day, Day) {
	until := today.quarterStart()
	return until.addMonths(-3), until
}

// ThisYear returns the fiscal year containing today.
func ThisYear(today Day) (Day, Day) {
	since := today.fiscalYearStart()
	return since, since.addMonths(12)
}

// LastYear returns the fiscal year before the one containing today.
func LastYear(today Day) (Day, Day) {
	until := today.fiscalYearStart()
	return until.addMonths(-12), until
}
