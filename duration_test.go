package sntp

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration64Arithmetic(t *testing.T) {
	d, err := OneSecond64.Add(OneSecond64)
	require.NoError(t, err)
	assert.Equal(t, 2*OneSecond64, d)

	d, err = OneSecond64.Sub(2 * OneSecond64)
	require.NoError(t, err)
	assert.Equal(t, -OneSecond64, d)

	d, err = (3 * OneSecond64).Div(2)
	require.NoError(t, err)
	assert.Equal(t, OneSecond64+OneSecond64/2, d)

	d, err = Duration64(-3).Div(2)
	require.NoError(t, err)
	assert.Equal(t, Duration64(-1), d, "truncates toward zero")

	for name, f := range map[string]func() (Duration64, error){
		"add max":  func() (Duration64, error) { return Duration64(math.MaxInt64).Add(EpsilonDuration64) },
		"add min":  func() (Duration64, error) { return Duration64(math.MinInt64).Add(-EpsilonDuration64) },
		"sub min":  func() (Duration64, error) { return Duration64(math.MinInt64).Sub(EpsilonDuration64) },
		"sub max":  func() (Duration64, error) { return Duration64(math.MaxInt64).Sub(-EpsilonDuration64) },
		"div zero": func() (Duration64, error) { return OneSecond64.Div(0) },
		"div -1":   func() (Duration64, error) { return Duration64(math.MinInt64).Div(-1) },
	} {
		_, err := f()
		assert.ErrorIs(t, err, ErrOverflow, name)
	}
}

func TestDuration64Conversions(t *testing.T) {
	d := Duration64FromDuration(1500 * time.Millisecond)
	assert.Equal(t, OneSecond64+OneSecond64/2, d)
	assert.Equal(t, 1.5, d.Seconds())
	assert.Equal(t, 1500.0, d.Milliseconds())
	assert.Equal(t, 1.5e9, d.Nanoseconds())
	assert.Equal(t, 1500*time.Millisecond, d.Duration())
	assert.Equal(t, "1.5s", d.String())

	neg := Duration64FromDuration(-250 * time.Millisecond)
	assert.Equal(t, -250*time.Millisecond, neg.Duration())

	assert.Equal(t, "596523h14m8s", Duration64(math.MaxInt64).Duration().String())
	assert.Equal(t, "-596523h14m8s", Duration64(math.MinInt64).Duration().String())
	assert.Equal(t, -1, ZeroDuration64.Compare(EpsilonDuration64))
}

func TestDuration32(t *testing.T) {
	one := NewDuration32(1, 0)
	assert.Equal(t, Duration32(65536), one)
	assert.Equal(t, 1.0, one.Seconds())
	assert.Equal(t, int16(1), one.WholeSeconds())
	assert.Equal(t, OneSecond64, one.Duration64())

	half := NewDuration32(-1, 0x8000)
	assert.Equal(t, -0.5, half.Seconds())
	assert.Equal(t, -500*time.Millisecond, half.Duration())
	assert.Equal(t, uint16(0x8000), half.FractionBits())
	assert.Equal(t, 1, one.Compare(half))

	m := make([]byte, 4)
	require.NoError(t, half.Put(m, 0))
	assert.Equal(t, []byte{0xff, 0xff, 0x80, 0x00}, m)
	got, err := ParseDuration32(m)
	require.NoError(t, err)
	assert.Equal(t, half, got)

	_, err = ParseDuration32(m[:3])
	assert.ErrorIs(t, err, ErrInputTooShort)
	assert.ErrorIs(t, half.Put(m, 1), ErrOutOfRange)

	sum, err := one.Add(half)
	require.NoError(t, err)
	assert.Equal(t, 0.5, sum.Seconds())
	_, err = Duration32(math.MaxInt32).Add(1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDuration24(t *testing.T) {
	for _, tc := range []struct {
		sec  int8
		frac uint32
		ok   bool
	}{
		{0, 0, true},
		{3, 1<<22 - 1, true},
		{-4, 0, true},
		{4, 0, false},
		{-5, 0, false},
		{0, 1 << 22, false},
	} {
		_, err := NewDuration24(tc.sec, tc.frac)
		if tc.ok {
			assert.NoError(t, err, "%d %d", tc.sec, tc.frac)
		} else {
			assert.ErrorIs(t, err, ErrOutOfRange, "%d %d", tc.sec, tc.frac)
		}
	}

	d, err := NewDuration24(-1, 1<<21)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), d.WholeSeconds())
	assert.Equal(t, uint32(1<<21), d.FractionalSeconds())
	assert.Equal(t, int32(-1<<21), d.TotalFractionalSeconds())
	assert.Equal(t, -0.5, d.Seconds())
	assert.Equal(t, -OneSecond64/2, d.Duration64())

	one, err := NewDuration24(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Compare(d))
	assert.Equal(t, -1, d.Compare(one))
	assert.Equal(t, 0, d.Compare(d))
}
