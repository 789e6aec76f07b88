package sntp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawPacket(li LeapIndicator, version uint8, mode Mode, stratum uint8, refID [4]byte) []byte {
	m := make([]byte, PacketSize)
	setLi(m, li)
	setVersion(m, version)
	setMode(m, mode)
	setUint8(m, StratumPos, stratum)
	copy(m[ReferIDPos:], refID[:])
	return m
}

func TestDecodeAllZero(t *testing.T) {
	p, err := DecodePacket(make([]byte, PacketSize))
	require.NoError(t, err)
	assert.Equal(t, LeapNoWarning, p.Leap)
	assert.Equal(t, uint8(0), p.Version)
	assert.Equal(t, ModeReserved, p.Mode)
	assert.Equal(t, StratumUnavailable, p.Stratum)
	assert.True(t, p.TransmitTime.IsZero())
	assert.True(t, p.ReceiveTime.IsZero())
}

func TestDecodeShort(t *testing.T) {
	for _, n := range []int{0, 1, 40, PacketSize - 1} {
		_, err := DecodePacket(make([]byte, n))
		assert.ErrorIs(t, err, ErrInputTooShort, n)
		var se *ShortPacketError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, n, se.Len)
	}
}

func TestDecodeFields(t *testing.T) {
	m := rawPacket(LeapNegativeLeapSecond, 4, ModeServer, 2, [4]byte{10, 0, 0, 1})
	setInt8(m, PollPos, 6)
	setInt8(m, ClockPrecisionPos, -20)
	setUint32(m, RootDelayPos, 0x00008000)
	setUint32(m, RootDispersionPos, 0x00010000)
	require.NoError(t, NewTimestamp64(1, 2).Put(m, ReferenceTimeStamp))
	require.NoError(t, NewTimestamp64(3, 4).Put(m, OriginTimeStamp))
	require.NoError(t, NewTimestamp64(5, 6).Put(m, ReceiveTimeStamp))
	require.NoError(t, NewTimestamp64(7, 8).Put(m, TransmitTimeStamp))

	// trailing bytes are ignored
	p, err := DecodePacket(append(m, 0xde, 0xad))
	require.NoError(t, err)

	assert.Equal(t, LeapNegativeLeapSecond, p.Leap)
	assert.Equal(t, uint8(4), p.Version)
	assert.Equal(t, ModeServer, p.Mode)
	assert.Equal(t, uint8(ModeServer), getMode(m))
	assert.Equal(t, StratumSecondaryReference, p.Stratum)
	assert.Equal(t, uint8(2), p.RawStratum)
	assert.Equal(t, int8(6), p.Poll)
	assert.Equal(t, 64*time.Second, p.PollInterval())
	assert.Equal(t, int8(-20), p.Precision)
	assert.Equal(t, 0.5, p.RootDelay.Seconds())
	assert.Equal(t, 1.0, p.RootDispersion.Seconds())
	assert.Equal(t, uint32(0x0a000001), p.ReferenceIDUint32())
	assert.Equal(t, NewTimestamp64(1, 2), p.ReferenceTime)
	assert.Equal(t, NewTimestamp64(3, 4), p.OriginTime)
	assert.Equal(t, NewTimestamp64(5, 6), p.ReceiveTime)
	assert.Equal(t, NewTimestamp64(7, 8), p.TransmitTime)

	assert.Equal(t, m, p.Bytes())
}

func TestDecodeSignedBytes(t *testing.T) {
	m := make([]byte, PacketSize)
	m[PollPos] = 0x80
	m[ClockPrecisionPos] = 0xff
	p, err := DecodePacket(m)
	require.NoError(t, err)
	assert.Equal(t, int8(-128), p.Poll)
	assert.Equal(t, int8(-1), p.Precision)
	assert.Equal(t, time.Duration(0), p.PollInterval())
	assert.Equal(t, 500*time.Millisecond, p.PrecisionDuration())

	m[PollPos] = 127
	p, err = DecodePacket(m)
	require.NoError(t, err)
	assert.Greater(t, p.PollInterval(), 100*365*24*time.Hour)
}

func TestStratumMapping(t *testing.T) {
	for raw, want := range map[uint8]Stratum{
		0:   StratumUnavailable,
		1:   StratumPrimaryReference,
		2:   StratumSecondaryReference,
		15:  StratumSecondaryReference,
		16:  StratumUnsynchronized,
		17:  StratumReserved,
		255: StratumReserved,
	} {
		assert.Equal(t, want, decodeStratum(raw), raw)
	}
}

func TestReferenceIdentifier(t *testing.T) {
	for _, tc := range []struct {
		name    string
		stratum uint8
		version uint8
		ref     [4]byte
		id      string
		ok      bool
	}{
		{"primary keeps padding", 1, 4, [4]byte{'G', 'P', 'S', 0}, "GPS\x00", true},
		{"primary any version", 1, 3, [4]byte{'P', 'P', 'S', ' '}, "PPS ", true},
		{"kiss code", 0, 4, [4]byte{'R', 'A', 'T', 'E'}, "RATE", true},
		{"secondary v3 address", 2, 3, [4]byte{192, 0, 2, 1}, "192.0.2.1", true},
		{"secondary v4 hash", 3, 4, [4]byte{0xde, 0xad, 0xbe, 0xef}, "", true},
		{"reserved", 200, 4, [4]byte{1, 2, 3, 4}, "", true},
		{"unsynchronized", 16, 4, [4]byte{1, 2, 3, 4}, "", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodePacket(rawPacket(LeapNoWarning, tc.version, ModeServer, tc.stratum, tc.ref))
			require.NoError(t, err)
			id, ok := p.ReferenceIdentifier()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestKissCode(t *testing.T) {
	p, err := DecodePacket(rawPacket(LeapUnsynchronized, 4, ModeServer, 0, [4]byte{'D', 'E', 'N', 'Y'}))
	require.NoError(t, err)
	code, ok := p.KissCode()
	assert.True(t, ok)
	assert.Equal(t, "DENY", code)

	p, err = DecodePacket(rawPacket(LeapUnsynchronized, 4, ModeServer, 0, [4]byte{'X', 'X', 'X', 'X'}))
	require.NoError(t, err)
	_, ok = p.KissCode()
	assert.False(t, ok)

	p, err = DecodePacket(rawPacket(LeapNoWarning, 4, ModeServer, 1, [4]byte{'D', 'E', 'N', 'Y'}))
	require.NoError(t, err)
	_, ok = p.KissCode()
	assert.False(t, ok)
}

func TestEncodeShortBuffer(t *testing.T) {
	p := &Packet{Version: 4, Mode: ModeClient}
	assert.ErrorIs(t, p.Encode(make([]byte, 47)), ErrInputTooShort)

	m := p.Bytes()
	assert.Len(t, m, PacketSize)
	assert.Equal(t, byte(0x23), m[LiVnModePos])
}

func TestFirstByteFields(t *testing.T) {
	m := make([]byte, PacketSize)
	setLi(m, LeapUnsynchronized)
	setVersion(m, 3)
	setMode(m, ModeClient)
	assert.Equal(t, byte(0xdb), m[LiVnModePos])

	// out of range values do not spill into neighbouring fields
	setVersion(m, 0xff)
	assert.Equal(t, uint8(3), getLi(m))
	assert.Equal(t, uint8(7), getVersion(m))
	assert.Equal(t, uint8(ModeClient), getMode(m))

	setMode(m, ModeServer)
	setLi(m, LeapNoWarning)
	assert.Equal(t, uint8(0), getLi(m))
	assert.Equal(t, uint8(7), getVersion(m))
	assert.Equal(t, uint8(ModeServer), getMode(m))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Server", ModeServer.String())
	assert.Equal(t, "Unsynchronized", LeapUnsynchronized.String())
	assert.Equal(t, "SecondaryReference", StratumSecondaryReference.String())
	assert.Equal(t, "Invalid", Mode(9).String())
}
