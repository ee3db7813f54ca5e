package fields

import (
	"strings"
	"time"
)

const (
	minYear = 1900
	maxYear = 2100
)

// dateLayouts is tried in order. Day-first variants precede month-first ones
// so "05/06/2024" reads as 5 June.
var dateLayouts = []string{
	"2/1/2006 15:04:05", "2-1-2006 15:04:05",
	"1/2/2006 15:04:05", "1-2-2006 15:04:05",
	"2006/1/2 15:04:05", "2006-1-2 15:04:05",
	"2/1/2006 3:04:05 PM", "2-1-2006 3:04:05 PM",
	"1/2/2006 3:04:05 PM", "1-2-2006 3:04:05 PM",
	"2/1/2006 15:04", "2-1-2006 15:04",
	"1/2/2006 15:04", "1-2-2006 15:04",
	"2006/1/2 15:04", "2006-1-2 15:04",
	"2/1/2006", "2-1-2006", "1/2/2006", "1-2-2006", "2006/1/2", "2006-1-2",
}

// fallbackLayouts are day-first shapes seen in other exports: dotted dates,
// two-digit years, month names and ISO timestamps.
var fallbackLayouts = []string{
	"2.1.2006 15:04:05", "2.1.2006 15:04", "2.1.2006",
	"2/1/06 15:04:05", "2/1/06 15:04", "2/1/06",
	"2/1/2006 3:04 PM", "1/2/2006 3:04 PM",
	"2 Jan 2006 15:04:05", "2 Jan 2006 15:04", "2 Jan 2006",
	"2-Jan-2006 15:04:05", "2-Jan-2006",
	"Jan 2, 2006 3:04:05 PM", "Jan 2, 2006",
	time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04",
	"20060102 150405", "20060102",
}

var (
	garbleCleaner = strings.NewReplacer("Â", "", "\u00a0", " ", "\u202f", " ")

	// longest spellings first so "a. m." is not half-consumed by "a m"
	meridiemCleaner = strings.NewReplacer(
		"a. m.", "AM", "p. m.", "PM",
		"a.m.", "AM", "p.m.", "PM",
		"A.M.", "AM", "P.M.", "PM",
		"a m", "AM", "p m", "PM",
		"A M", "AM", "P M", "PM",
		"am", "AM", "pm", "PM",
	)
)

// ParseDateTime reads a timestamp cell. The zero time and false are returned
// for empty or unreadable cells and for any result outside 1900..2100.
// Timestamps are wall-clock values in UTC; exports carry no zone.
func ParseDateTime(raw string) (time.Time, bool) {
	s := cleanDateTime(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return bounded(t)
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return bounded(t)
		}
	}
	return time.Time{}, false
}

// IsDateValid reports whether raw is empty or parses as a timestamp.
func IsDateValid(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	_, ok := ParseDateTime(raw)
	return ok
}

func cleanDateTime(raw string) string {
	s := garbleCleaner.Replace(strings.TrimSpace(raw))
	s = meridiemCleaner.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func bounded(t time.Time) (time.Time, bool) {
	if t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}
