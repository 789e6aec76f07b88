package sntp

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// seconds between 1900-01-01 and 1970-01-01
	unixEraOffset int64 = 2_208_988_800
	eraLength     int64 = 1 << 32

	randomizedBits = 22
	randomizedMask = uint32(1)<<randomizedBits - 1
)

var ntpEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	// ZeroTimestamp is the NTP epoch, 1900-01-01T00:00:00Z.
	ZeroTimestamp = Timestamp64{}
	MinTimestamp  = ZeroTimestamp
	MaxTimestamp  = Timestamp64{sec: 0xffffffff, frac: 0xffffffff}
)

// Timestamp64 is the 64-bit NTP timestamp: 32 bits of seconds since the
// start of the era and 32 bits of fraction, one second being 2^32 units.
// Any bit pattern is valid. Ordering is that of the unsigned 64-bit value,
// era rollover is not taken into account.
type Timestamp64 struct {
	sec  uint32
	frac uint32
}

func NewTimestamp64(secondOfEra, fractionOfSecond uint32) Timestamp64 {
	return Timestamp64{sec: secondOfEra, frac: fractionOfSecond}
}

func timestampFromUint64(v uint64) Timestamp64 {
	return Timestamp64{sec: uint32(v >> 32), frac: uint32(v)}
}

// FromTime converts an instant to an NTP timestamp with millisecond
// resolution. The instant is taken in UTC; seconds past the end of the
// era wrap.
func FromTime(t time.Time) Timestamp64 {
	t = t.UTC()
	secs := t.Unix() + unixEraOffset
	ms := uint64(t.Nanosecond() / int(time.Millisecond))
	return Timestamp64{
		sec:  uint32(secs),
		frac: uint32(ms << 32 / 1000),
	}
}

func (t Timestamp64) SecondOfEra() uint32      { return t.sec }
func (t Timestamp64) FractionOfSecond() uint32 { return t.frac }

func (t Timestamp64) Uint64() uint64 {
	return uint64(t.sec)<<32 | uint64(t.frac)
}

// MillisecondsSinceZero truncates the fraction to whole milliseconds.
func (t Timestamp64) MillisecondsSinceZero() uint64 {
	return 1000*uint64(t.sec) + (1000*uint64(t.frac))>>32
}

// Time returns the instant in UTC, truncated to the millisecond.
func (t Timestamp64) Time() time.Time {
	return ntpEpoch.Add(time.Duration(t.MillisecondsSinceZero()) * time.Millisecond)
}

// RandomizeSubMilliseconds returns a copy of t with the low 22 bits of the
// fraction replaced by a value drawn from r. The upper 10 bits, which carry
// the millisecond, are kept.
func (t Timestamp64) RandomizeSubMilliseconds(r RandomSource) Timestamp64 {
	n := r.Int31Range(0, 1<<randomizedBits)
	return Timestamp64{
		sec:  t.sec,
		frac: t.frac&^randomizedMask | uint32(n)&randomizedMask,
	}
}

// ParseTimestamp64 reads a big-endian timestamp from the first 8 bytes of b.
func ParseTimestamp64(b []byte) (t Timestamp64, err error) {
	if len(b) < 8 {
		err = &ShortPacketError{Len: len(b), Need: 8}
		return
	}
	t.sec = binary.BigEndian.Uint32(b[0:])
	t.frac = binary.BigEndian.Uint32(b[4:])
	return
}

// Put writes t big-endian into m at index.
func (t Timestamp64) Put(m []byte, index int) error {
	if index < 0 || len(m) < index+8 {
		return fmt.Errorf("sntp: timestamp at %d does not fit buffer of %d bytes: %w",
			index, len(m), ErrOutOfRange)
	}
	binary.BigEndian.PutUint32(m[index:], t.sec)
	binary.BigEndian.PutUint32(m[index+4:], t.frac)
	return nil
}

// Sub returns t-u. The magnitude is computed on the unsigned values and
// the sign applied afterwards; ErrOverflow is returned when it does not
// fit a Duration64.
func (t Timestamp64) Sub(u Timestamp64) (Duration64, error) {
	end, start := t.Uint64(), u.Uint64()
	if end >= start {
		diff := end - start
		if diff > maxDuration64 {
			return 0, fmt.Errorf("sntp: %s - %s: %w", t, u, ErrOverflow)
		}
		return Duration64(diff), nil
	}
	diff := start - end
	if diff > maxDuration64+1 {
		return 0, fmt.Errorf("sntp: %s - %s: %w", t, u, ErrOverflow)
	}
	// -(1<<63) is representable, -diff wraps to exactly that.
	return Duration64(-int64(diff)), nil
}

func (t Timestamp64) Compare(u Timestamp64) int {
	a, b := t.Uint64(), u.Uint64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t Timestamp64) Equal(u Timestamp64) bool  { return t == u }
func (t Timestamp64) Before(u Timestamp64) bool { return t.Compare(u) < 0 }
func (t Timestamp64) After(u Timestamp64) bool  { return t.Compare(u) > 0 }
func (t Timestamp64) IsZero() bool              { return t == ZeroTimestamp }

func (t Timestamp64) String() string {
	return fmt.Sprintf("%08x.%08x", t.sec, t.frac)
}
