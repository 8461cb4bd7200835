package kiosk

import "fmt"

// FormatDuration renders a millisecond duration as
// "H hour(s) M minute(s) S second(s)", singular at exactly one.
// This is the string stored on closed sessions.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / (1000 * 60 * 60)
	minutes := (ms % (1000 * 60 * 60)) / (1000 * 60)
	seconds := (ms % (1000 * 60)) / 1000

	return fmt.Sprintf("%d hour%s %d minute%s %d second%s",
		hours, plural(hours),
		minutes, plural(minutes),
		seconds, plural(seconds))
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}
