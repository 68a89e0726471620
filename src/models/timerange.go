package models

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Time-range selections offered by detail views. Each maps to the window
// duration a history series is truncated to.
// -----------------------------------------------------------------------------

var timeRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// -----------------------------------------------------------------------------

// WindowDuration resolves a time-range selection to its window duration.
func WindowDuration(timeRange string) (time.Duration, error) {
	d, ok := timeRanges[timeRange]
	if !ok {
		return 0, fmt.Errorf("unknown time range %q", timeRange)
	}
	return d, nil
}

// -----------------------------------------------------------------------------

// TimeRanges lists the supported selections in ascending window order.
func TimeRanges() []string {
	return []string{"1h", "12h", "24h", "7d", "30d"}
}
