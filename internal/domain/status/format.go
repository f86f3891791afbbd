package status

import (
	"strconv"
	"time"
)

// FormatRemaining renders a compact countdown label such as "2d 3h",
// "4h 10m", "45m" or "30s". Zero or negative durations render as "0s".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	switch {
	case days > 0:
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	case hours > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	case minutes > 0:
		return strconv.Itoa(minutes) + "m"
	default:
		return strconv.Itoa(seconds) + "s"
	}
}
