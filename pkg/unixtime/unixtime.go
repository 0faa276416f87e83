// Package unixtime renders Unix-second timestamps for display.
package unixtime

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Never is shown for missing or unparseable timestamps.
const Never = "never"

// Layout is the date-only layout used by Format, e.g. "Thu Jan 01 1970".
const Layout = "Mon Jan 02 2006"

// Parse converts a decimal seconds-since-epoch string. Fractional seconds
// are kept. ok is false for empty or non-numeric input.
func Parse(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}, false
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}

// Format renders s as a date in the local time zone, or Never.
func Format(s string) string {
	t, ok := Parse(s)
	if !ok {
		return Never
	}
	return t.Local().Format(Layout)
}
