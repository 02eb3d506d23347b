// utils/dates.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	FirstSlotHour = 8
	LastSlotHour  = 19
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// NormalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", TimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
}

// SlotTimes returns the fixed hourly slate, 08:00 through 19:00.
func SlotTimes() []string {
	slots := make([]string, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

func IsSlotTime(hhmm string) bool {
	for _, s := range SlotTimes() {
		if s == hhmm {
			return true
		}
	}
	return false
}

// DisplayTime renders HH:MM as "3:00 PM".
func DisplayTime(hhmm string) string {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}

// DisplayDate renders YYYY-MM-DD as "Jun 01, 2025".
func DisplayDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 02, 2006")
}
