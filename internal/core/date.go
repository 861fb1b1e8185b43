package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02/01/2006"

	minDisplayYear = 1900
	maxDisplayYear = 2100
)

// ParseISODate parses yyyy-mm-dd. A full RFC 3339 timestamp is accepted as
// well and truncated to its calendar date, since the store returns due dates
// in either form.
func ParseISODate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(isoLayout) && s[len(isoLayout)] == 'T' {
		s = s[:len(isoLayout)]
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return Date{Time: t}, nil
}

// FormatDisplayDate converts yyyy-mm-dd into dd/mm/yyyy.
func FormatDisplayDate(iso string) (string, error) {
	d, err := ParseISODate(iso)
	if err != nil {
		return "", err
	}
	return d.Display(), nil
}

// ParseDisplayDate converts dd/mm/yyyy into yyyy-mm-dd.
func ParseDisplayDate(text string) (string, error) {
	d, err := ParseDisplay(text)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// ParseDisplay parses dd/mm/yyyy, rejecting days that do not exist in the
// given month and years outside 1900..2100.
func ParseDisplay(text string) (Date, error) {
	text = strings.TrimSpace(text)
	parts := strings.Split(text, "/")
	if len(text) != len(displayLayout) || len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, text)
	}

	day, errD := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	year, errY := strconv.Atoi(parts[2])
	if errD != nil || errM != nil || errY != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, text)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDateFormat, month)
	}
	if year < minDisplayYear || year > maxDisplayYear {
		return Date{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDateFormat, year)
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("%w: day %d out of range for %02d/%d", ErrInvalidDateFormat, day, month, year)
	}
	return NewDate(year, month, day), nil
}

// Display returns the date as dd/mm/yyyy.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(displayLayout)
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days of month (1-12) in year.
func DaysInMonth(year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}
