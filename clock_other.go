//go:build !linux || !(amd64 || arm64)

package sntp

import "time"

// AdjustClock is only implemented on linux.
func AdjustClock(offset time.Duration, leap LeapIndicator, force bool) error {
	return ErrClockUnsupported
}
