// Package timing computes run durations from GitLab timestamps.
package timing

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the UTC timestamp format GitLab uses for started_at/finished_at.
// The fractional part is optional when parsing and may have 1 to 9 digits.
const Layout = "2006-01-02T15:04:05.999999999Z"

var (
	ErrMissingTimestamp   = errors.New("timestamp missing")
	ErrMalformedTimestamp = errors.New("timestamp malformed")
	ErrNegativeDuration   = errors.New("finish precedes start")
)

// Parse parses a GitLab timestamp. Timestamps carrying a numeric UTC offset
// instead of "Z" are accepted as RFC 3339.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339Nano, s)
	if rfcErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
}

// Elapsed returns finished - started.
// A non-nil error means the duration is unavailable and must not be recorded;
// a zero duration with a nil error is a genuine instantaneous run.
func Elapsed(started, finished *string) (time.Duration, error) {
	if started == nil || finished == nil || *started == "" || *finished == "" {
		return 0, ErrMissingTimestamp
	}

	start, err := Parse(*started)
	if err != nil {
		return 0, err
	}
	end, err := Parse(*finished)
	if err != nil {
		return 0, err
	}

	d := end.Sub(start)
	if d < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNegativeDuration, d)
	}
	return d, nil
}

// Reason maps an Elapsed error to a short label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingTimestamp):
		return "missing_timestamp"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrNegativeDuration):
		return "negative_duration"
	default:
		return "unknown"
	}
}
