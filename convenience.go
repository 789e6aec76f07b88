package sntp

import (
	"errors"
	"time"
)

// MaxSlew is the largest offset AdjustClock slews instead of stepping.
const MaxSlew = 128 * time.Millisecond

var (
	ErrOffsetTooLarge   = errors.New("sntp: offset too large to slew")
	ErrClockUnsupported = errors.New("sntp: clock adjustment not supported on this platform")
)

func absDuration(a time.Duration) time.Duration {
	if a < 0 {
		return -a
	}
	return a
}

func absDurationLess(a, b time.Duration) bool {
	return absDuration(a) < b
}

// NeedsStep reports whether offset is beyond what AdjustClock slews.
func NeedsStep(offset time.Duration) bool {
	return !absDurationLess(offset, MaxSlew)
}
