package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignMillis truncates an epoch-millisecond timestamp down to an interval
// boundary, e.g. the minute a candle opened on.
func AlignMillis(ts int64, interval time.Duration) int64 {
	step := interval.Milliseconds()
	if step <= 0 {
		return ts
	}
	return ts - ts%step
}

// IntervalDuration maps an exchange interval token to its duration; unknown
// tokens fall back to one minute, the chart's native cadence.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1s":
		return time.Second
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	default:
		return time.Minute
	}
}
