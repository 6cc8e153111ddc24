package models

import (
	"fmt"
	"time"
)

// IntervalDuration maps a candle interval name to its length
func IntervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1min":
		return time.Minute, nil
	case "5min":
		return 5 * time.Minute, nil
	case "15min":
		return 15 * time.Minute, nil
	case "30min":
		return 30 * time.Minute, nil
	case "45min":
		return 45 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "2h":
		return 2 * time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "8h":
		return 8 * time.Hour, nil
	case "1day":
		return 24 * time.Hour, nil
	case "1week":
		return 7 * 24 * time.Hour, nil
	}
	return 0, InvalidField("interval", fmt.Sprintf("%q is not a supported interval", interval))
}

// HistoryWindow returns the [start, end] span covering bars candles ending at end
func HistoryWindow(interval string, bars int, end time.Time) (time.Time, time.Time, error) {
	d, err := IntervalDuration(interval)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if bars <= 0 {
		return time.Time{}, time.Time{}, InvalidField("bars", "must be positive")
	}
	// inclusive on both ends, so bars-1 steps back
	return end.Add(-time.Duration(bars-1) * d), end, nil
}
