package models

import "fmt"

// ScheduleForInterval converts a polling interval name into a cron spec
func ScheduleForInterval(interval string) (string, error) {
	switch interval {
	case "1min":
		return "@every 1m", nil
	case "5min":
		return "@every 5m", nil
	case "15min":
		return "@every 15m", nil
	case "30min":
		return "@every 30m", nil
	case "1h":
		return "@hourly", nil
	case "4h":
		return "@every 4h", nil
	case "1day":
		// Subgraph day data rolls over at 00:00 UTC
		return "@daily", nil
	}
	return "", fmt.Errorf("%w: unsupported poll interval %q", ErrInvalidInput, interval)
}
