// Package clock renders and parses the fixed UTC timestamp format shared by
// every persisted row and every external response.
package clock

import (
	"fmt"
	"time"
)

// Layout matches the source format "%Y-%m-%dT%H:%M:%S.%fZ": UTC, six
// fractional digits, always zero-padded.
const Layout = "2006-01-02T15:04:05.000000Z"

// NowString returns the current instant in Layout, in UTC.
func NowString() string {
	return time.Now().UTC().Format(Layout)
}

// Format renders t in Layout, in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse parses a timestamp previously produced by NowString/Format.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", s)
	}
	return t, nil
}
