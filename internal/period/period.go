package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"BioDigest/internal/domain"
)

// Labels for the two daily reporting cycles.
const (
	LabelMorning = "Morning Digest"
	LabelEvening = "Evening Digest"
)

// Compute returns the fetch window for a run triggered at now.
// The raw start is now minus the configured lookback; it is then floored to
// the latest configured report time at or before it, so that runs executed
// exactly on schedule tile the timeline. Runs executed early or late produce
// overlap or gap, which is accepted.
func Compute(now time.Time, windowHours int, reportTimes []string) domain.Window {
	since := now.Add(-time.Duration(windowHours) * time.Hour)
	if anchor, ok := priorScheduledRun(since, reportTimes); ok {
		since = anchor
	}
	return domain.Window{Since: since, Now: now}
}

// priorScheduledRun finds the most recent scheduled run time at or before t.
func priorScheduledRun(t time.Time, reportTimes []string) (time.Time, bool) {
	var best time.Time
	found := false

	for dayOffset := 0; dayOffset >= -1; dayOffset-- {
		day := t.AddDate(0, 0, dayOffset)
		for _, rt := range reportTimes {
			hour, minute, err := ParseClock(rt)
			if err != nil {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, t.Location())
			if candidate.After(t) {
				continue
			}
			if !found || candidate.After(best) {
				best = candidate
				found = true
			}
		}
	}

	return best, found
}

// ParseClock parses an "HH:MM" schedule entry.
func ParseClock(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// LabelForHour maps a local hour to the period label.
func LabelForHour(hour int) string {
	if hour < 12 {
		return LabelMorning
	}
	return LabelEvening
}

// AutoLabel detects the label for a manual run from the local time.
func AutoLabel(now time.Time) string {
	return LabelForHour(now.Hour())
}

// Identifier keys persisted artifacts, e.g. "2024-06-01-AM".
func Identifier(now time.Time) string {
	half := "AM"
	if now.Hour() >= 12 {
		half = "PM"
	}
	return now.Format("2006-01-02") + "-" + half
}
