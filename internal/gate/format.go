package gate

import (
	"fmt"
	"time"
)

// FormatElapsed renders "Never", "<n>m ago", "<h>h <m>m ago" or "<d> day(s) ago".
func FormatElapsed(last time.Time, ok bool, now time.Time) string {
	if !ok {
		return "Never"
	}

	elapsed := now.Sub(last)
	if elapsed < 0 {
		elapsed = 0
	}

	minutes := int64(elapsed / time.Minute)
	hours := minutes / 60

	switch {
	case hours >= 24:
		days := hours / 24
		if days > 1 {
			return fmt.Sprintf("%d days ago", days)
		}
		return fmt.Sprintf("%d day ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh %dm ago", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm ago", minutes)
	}
}
