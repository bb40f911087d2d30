package domain

import (
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the factor between the two estimate units.
const MinutesPerDay = 24 * 60

// TimeUnit is the unit an estimate is entered in.
type TimeUnit string

const (
	UnitMinutes TimeUnit = "minutes"
	UnitDays    TimeUnit = "days"
)

// ParseTimeUnit parses "minutes"/"m" or "days"/"d".
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(s) {
	case "", "m", "min", "minutes":
		return UnitMinutes, nil
	case "d", "day", "days":
		return UnitDays, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidTimeUnit)
	}
}

// ToMinutes converts an estimate in unit to minutes, the stored unit.
func ToMinutes(value int, unit TimeUnit) int {
	if unit == UnitDays {
		return DaysToMinutes(value)
	}
	return value
}

// MinutesToDays converts minutes to whole days, rounding up.
func MinutesToDays(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + MinutesPerDay - 1) / MinutesPerDay
}

// DaysToMinutes converts days to minutes.
func DaysToMinutes(days int) int {
	return days * MinutesPerDay
}

// FormatEstimate formats minutes like "1d 2h 3m". Zero yields "0m".
func FormatEstimate(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	days := minutes / MinutesPerDay
	hours := (minutes % MinutesPerDay) / 60
	rest := minutes % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if rest > 0 {
		parts = append(parts, fmt.Sprintf("%dm", rest))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// FormatClock formats seconds as "MM:SS". Minutes are not wrapped at an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatSittingDuration formats seconds like "1h 2m 3s". Zero yields "0s".
func FormatSittingDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	rest := seconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if rest > 0 {
		parts = append(parts, fmt.Sprintf("%ds", rest))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// Countdown describes the time until a task starts, or the time left of its estimate.
func Countdown(start time.Time, estimateMinutes int, now time.Time) string {
	if now.Before(start) {
		secs := int(start.Sub(now) / time.Second)
		return fmt.Sprintf("Starts in: %dd %dh %dm %ds",
			secs/86400, (secs%86400)/3600, (secs%3600)/60, secs%60)
	}
	end := start.Add(time.Duration(estimateMinutes) * time.Minute)
	remaining := int(end.Sub(now) / time.Second)
	if remaining <= 0 {
		return "Time is up!"
	}
	return fmt.Sprintf("Time remaining: %dh %dm %ds",
		remaining/3600, (remaining%3600)/60, remaining%60)
}

// CeilSeconds converts a duration to whole seconds, rounding up. Negative yields 0.
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// FloorSeconds converts a duration to whole seconds, rounding down. Negative yields 0.
func FloorSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
