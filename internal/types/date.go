package types

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// NextDueDate returns the first occurrence of billingDay on or after start.
// When billingDay has already passed in start's month the date rolls to the
// following month. Days beyond the end of a month clamp to its last day, so
// a billing day of 31 lands on Feb 28/29.
func NextDueDate(start time.Time, billingDay int) (time.Time, error) {
	if billingDay < 1 || billingDay > 31 {
		return time.Time{}, fmt.Errorf("billing day must be between 1 and 31, got %d", billingDay)
	}

	y, m, d := start.Date()
	candidate := clampedDay(y, m, billingDay, start.Location())
	if d <= candidate.Day() {
		return candidate, nil
	}

	next := time.Date(y, m+1, 1, 0, 0, 0, 0, start.Location())
	return clampedDay(next.Year(), next.Month(), billingDay, start.Location()), nil
}

func clampedDay(y int, m time.Month, day int, loc *time.Location) time.Time {
	last := LastDayOfMonth(y, m, loc)
	if day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// LastDayOfMonth returns the number of days in the given month
func LastDayOfMonth(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// AddClampedDate adds years, months and days to t, clamping the day to the
// last valid day of the resulting month.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	lastDay := LastDayOfMonth(newY, newM, t.Location())

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
