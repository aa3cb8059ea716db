package analytics

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe bounds a summary to recent activity.
type Timeframe string

const (
	LastHour Timeframe = "1h"
	LastDay  Timeframe = "24h"
	LastWeek Timeframe = "7d"
	AllTime  Timeframe = "all"
)

// ParseTimeframe accepts 1h, 24h, 7d or all. An empty string means all.
func ParseTimeframe(input string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(input))); tf {
	case "":
		return AllTime, nil
	case LastHour, LastDay, LastWeek, AllTime:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe: %s", input)
	}
}

// Duration returns the window length, or 0 for AllTime.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case LastHour:
		return time.Hour
	case LastDay:
		return 24 * time.Hour
	case LastWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Since returns the inclusive lower bound relative to now, or the zero time for AllTime.
func (tf Timeframe) Since(now time.Time) time.Time {
	d := tf.Duration()
	if d == 0 {
		return time.Time{}
	}
	return now.Add(-d)
}

func windowStart(ts time.Time, window time.Duration) time.Time {
	return ts.Truncate(window)
}
