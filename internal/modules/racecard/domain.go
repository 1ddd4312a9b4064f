package racecard

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used across the service.
const DateLayout = "2006-01-02"

// Race is one scheduled race on a day's card. Immutable once listed for a
// poll; re-fetched every poll, never cached across polls.
type Race struct {
	ID     string
	Date   string // ISO date
	Time   string // HH:MM or HHMM local start time
	Venue  string
	Number int // sequence number within the venue
	Name   string
}

// StartAt resolves the race's local start instant. The start time is
// accepted in HH:MM or 4-digit HHMM form; anything else is a parse failure
// the caller should skip the race on.
func (r Race) StartAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, r.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid race date %q: %w", r.Date, err)
	}

	hour, minute, err := parseStartClock(r.Time)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func parseStartClock(s string) (int, int, error) {
	s = strings.TrimSpace(s)

	var hourStr, minuteStr string
	switch {
	case strings.Contains(s, ":"):
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("invalid start time %q", s)
		}
		hourStr, minuteStr = parts[0], parts[1]
	case len(s) == 4:
		hourStr, minuteStr = s[:2], s[2:]
	default:
		return 0, 0, fmt.Errorf("invalid start time %q", s)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start time %q", s)
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start time %q", s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("start time %q out of range", s)
	}

	return hour, minute, nil
}
