// Package utils provides formatting helpers shared by the report renderers.
package utils

import (
	"fmt"
	"time"
)

// Layouts used in file names and report headers. Reports are always dated
// in UTC so that a run's artifacts share one date regardless of host zone.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04 MST"
)

// ReportDate returns the UTC calendar date of t, formatted YYYY-MM-DD.
func ReportDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatDateTimeUTC formats t for report headers, e.g. "2026-03-02 12:00 UTC".
func FormatDateTimeUTC(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
