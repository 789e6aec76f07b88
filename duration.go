package sntp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const maxDuration64 = uint64(math.MaxInt64)

// Duration64 is a signed duration in units of 2^-32 seconds.
type Duration64 int64

const (
	ZeroDuration64    Duration64 = 0
	EpsilonDuration64 Duration64 = 1
	OneSecond64       Duration64 = 1 << 32
)

// Add returns d+o or ErrOverflow.
func (d Duration64) Add(o Duration64) (Duration64, error) {
	r := d + o
	if (o > 0 && r < d) || (o < 0 && r > d) {
		return 0, fmt.Errorf("sntp: %d + %d: %w", d, o, ErrOverflow)
	}
	return r, nil
}

// Sub returns d-o or ErrOverflow.
func (d Duration64) Sub(o Duration64) (Duration64, error) {
	r := d - o
	if (o > 0 && r > d) || (o < 0 && r < d) {
		return 0, fmt.Errorf("sntp: %d - %d: %w", d, o, ErrOverflow)
	}
	return r, nil
}

// Div returns d/n truncated toward zero.
func (d Duration64) Div(n int32) (Duration64, error) {
	if n == 0 {
		return 0, fmt.Errorf("sntp: %d / 0: %w", d, ErrOverflow)
	}
	if n == -1 && d == math.MinInt64 {
		return 0, fmt.Errorf("sntp: %d / -1: %w", d, ErrOverflow)
	}
	return d / Duration64(n), nil
}

func (d Duration64) Compare(o Duration64) int {
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

func (d Duration64) Seconds() float64 {
	return float64(d) / float64(eraLength)
}

func (d Duration64) Milliseconds() float64 {
	return float64(d) * 1e3 / float64(eraLength)
}

func (d Duration64) Nanoseconds() float64 {
	return float64(d) * 1e9 / float64(eraLength)
}

// Duration converts to a time.Duration, rounding to the nearest
// nanosecond. The whole Duration64 range, about 68 years either way, fits.
func (d Duration64) Duration() time.Duration {
	return time.Duration(math.Round(d.Nanoseconds()))
}

// Duration64FromDuration is the inverse of Duration, within 1ns.
func Duration64FromDuration(t time.Duration) Duration64 {
	sec := t / time.Second
	nsec := t - sec*time.Second
	return Duration64(int64(sec)<<32 + int64(nsec)<<32/int64(time.Second))
}

func (d Duration64) String() string {
	return d.Duration().String()
}

// Duration32 is the NTP short format: 16 bits of signed seconds and 16
// bits of fraction, read as one big-endian int32.
type Duration32 int32

func NewDuration32(seconds int16, fraction uint16) Duration32 {
	return Duration32(int32(seconds)<<16 | int32(fraction))
}

// ParseDuration32 reads the first 4 bytes of b.
func ParseDuration32(b []byte) (d Duration32, err error) {
	if len(b) < 4 {
		err = &ShortPacketError{Len: len(b), Need: 4}
		return
	}
	d = Duration32(int32(binary.BigEndian.Uint32(b)))
	return
}

func (d Duration32) Put(m []byte, index int) error {
	if index < 0 || len(m) < index+4 {
		return fmt.Errorf("sntp: short duration at %d does not fit buffer of %d bytes: %w",
			index, len(m), ErrOutOfRange)
	}
	binary.BigEndian.PutUint32(m[index:], uint32(d))
	return nil
}

func (d Duration32) Add(o Duration32) (Duration32, error) {
	r := int64(d) + int64(o)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, fmt.Errorf("sntp: %d + %d: %w", d, o, ErrOverflow)
	}
	return Duration32(r), nil
}

func (d Duration32) Compare(o Duration32) int {
	switch {
	case d < o:
		return -1
	case d > o:
		return 1
	}
	return 0
}

func (d Duration32) WholeSeconds() int16    { return int16(d >> 16) }
func (d Duration32) FractionBits() uint16   { return uint16(d) }
func (d Duration32) Duration64() Duration64 { return Duration64(int64(d) << 16) }

func (d Duration32) Seconds() float64 {
	return float64(d) / ntpShortLength
}

func (d Duration32) Duration() time.Duration {
	return time.Duration(int64(d) * int64(time.Second) >> 16)
}

func (d Duration32) String() string {
	return d.Duration().String()
}

const (
	duration24FracBits = 22
	duration24MinSec   = -4
	duration24MaxSec   = 3
	duration24MaxFrac  = 1<<duration24FracBits - 1
)

// Duration24 carries 3 effective bits of signed seconds and a 22-bit
// fraction, one second being 2^22 units.
type Duration24 struct {
	seconds  int8
	fraction uint32
}

// NewDuration24 fails with ErrOutOfRange unless seconds is in [-4, 3] and
// fraction in [0, 2^22).
func NewDuration24(seconds int8, fraction uint32) (Duration24, error) {
	if seconds < duration24MinSec || seconds > duration24MaxSec {
		return Duration24{}, fmt.Errorf("sntp: duration24 seconds %d: %w", seconds, ErrOutOfRange)
	}
	if fraction > duration24MaxFrac {
		return Duration24{}, fmt.Errorf("sntp: duration24 fraction %d: %w", fraction, ErrOutOfRange)
	}
	return Duration24{seconds: seconds, fraction: fraction}, nil
}

func (d Duration24) WholeSeconds() int8        { return d.seconds }
func (d Duration24) FractionalSeconds() uint32 { return d.fraction }

// TotalFractionalSeconds is (seconds << 22) | fraction.
func (d Duration24) TotalFractionalSeconds() int32 {
	return int32(d.seconds)<<duration24FracBits | int32(d.fraction)
}

func (d Duration24) Compare(o Duration24) int {
	a, b := d.TotalFractionalSeconds(), o.TotalFractionalSeconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Duration24) Seconds() float64 {
	return float64(d.TotalFractionalSeconds()) / (1 << duration24FracBits)
}

func (d Duration24) Duration64() Duration64 {
	return Duration64(int64(d.TotalFractionalSeconds()) << (32 - duration24FracBits))
}
