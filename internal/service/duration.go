package service

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d as e.g. "1 day 1 hour" or "2 minutes", largest
// unit first and zero units left out. Seconds are only shown when there is
// nothing larger, and always in the plural form.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	days, rem := total/86400, total%86400
	hours, rem := rem/3600, rem%3600
	minutes, seconds := rem/60, rem%60

	var parts []string
	parts = appendUnit(parts, days, "day")
	parts = appendUnit(parts, hours, "hour")
	parts = appendUnit(parts, minutes, "minute")
	if len(parts) == 0 {
		return fmt.Sprintf("%d seconds", seconds)
	}
	return strings.Join(parts, " ")
}

func appendUnit(parts []string, n int64, unit string) []string {
	switch {
	case n == 1:
		return append(parts, fmt.Sprintf("%d %s", n, unit))
	case n > 1:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	default:
		return parts
	}
}
