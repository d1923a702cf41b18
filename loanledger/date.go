package loanledger

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used at the Ledger's boundary.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// CalendarDate is a time.Time normalized to midnight UTC. Only year, month and day carry meaning.
type CalendarDate = time.Time

// ToCalendarDate drops the clock part of t, keeping the calendar day as seen in t's location.
func ToCalendarDate(t time.Time) CalendarDate {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a CalendarDate.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDate, err)
	}

	return ToCalendarDate(t), nil
}

// parseDateOrToday parses s, or returns today's date when s is empty.
func parseDateOrToday(s string, today time.Time) (CalendarDate, error) {
	if strings.TrimSpace(s) == "" {
		return ToCalendarDate(today), nil
	}

	return ParseDate(s)
}

// FormatDate renders a CalendarDate as YYYY-MM-DD.
func FormatDate(d CalendarDate) string {
	return d.Format(DateLayout)
}

// DaysBetween returns the number of whole calendar days from -> to. It is negative if to is before from.
// Counting on Unix seconds keeps spans longer than a time.Duration can hold exact.
func DaysBetween(from, to time.Time) int {
	return int((ToCalendarDate(to).Unix() - ToCalendarDate(from).Unix()) / secondsPerDay)
}
