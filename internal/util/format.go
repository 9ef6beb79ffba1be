package util //nolint:revive // package name util hosts shared formatting helpers used by the admin CLI

import "time"

// FormatTTL formats a Redis TTL for display. Negative values (no expiry or a
// missing key) render as "-"; others are truncated to whole seconds.
func FormatTTL(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	return d.Truncate(time.Second).String()
}
