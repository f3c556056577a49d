package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Bytes formats a byte count with binary units, e.g. "1.5 MiB".
func Bytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// Count formats a count with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent formats a percentage with at most one decimal.
func Percent(p float64) string {
	return humanize.FtoaWithDigits(p, 1) + "%"
}

// Ago describes t relative to now, e.g. "3 minutes ago". A zero time is "never".
func Ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// Duration rounds d for display.
func Duration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// Rate formats a throughput of n bytes over d, e.g. "12 MiB/s".
func Rate(n int64, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(float64(n)/d.Seconds())) + "/s"
}
