package timeutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseOffset normalizes a client-supplied UTC offset into integer minutes.
// Numbers are used as-is; strings are stripped of everything except digits
// and a sign before parsing. Unparseable input degrades to 0 (UTC) rather
// than failing — legacy clients send values like "+3" or "UTC-300".
func ParseOffset(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
		return 0
	case string:
		return parseOffsetString(v)
	default:
		return 0
	}
}

func parseOffsetString(s string) int {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// OffsetZone returns a fixed time.Location for the given offset in minutes.
func OffsetZone(offsetMinutes int) *time.Location {
	sign := "+"
	m := offsetMinutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, m/60, m%60)
	return time.FixedZone(name, offsetMinutes*60)
}

// DayKey returns the calendar date (YYYY-MM-DD) of an instant as seen from
// the given UTC offset. Both the quota and timezone engines use this to
// agree on "what day is it for this user".
func DayKey(t time.Time, offsetMinutes int) string {
	return t.In(OffsetZone(offsetMinutes)).Format("2006-01-02")
}

// SameLocalDay reports whether two instants fall on the same calendar date
// in the given UTC offset.
func SameLocalDay(a, b time.Time, offsetMinutes int) bool {
	return DayKey(a, offsetMinutes) == DayKey(b, offsetMinutes)
}

// NextLocalMidnight returns the next local 00:00 in the given offset,
// converted back to UTC.
func NextLocalMidnight(now time.Time, offsetMinutes int) time.Time {
	loc := OffsetZone(offsetMinutes)
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.UTC()
}

// FormatCountdown renders a duration as a short human-readable countdown,
// e.g. "3h 12m" or "45m". Sub-minute remainders round up; non-positive
// durations render as "0m".
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	total := int((d + time.Minute - 1) / time.Minute)
	h := total / 60
	m := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
