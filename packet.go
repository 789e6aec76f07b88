package sntp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Packet is the decoded form of a 48-byte NTP header. DestinationTime is
// not on the wire; the client stamps it when the reply arrives.
type Packet struct {
	Leap       LeapIndicator
	Version    uint8
	Mode       Mode
	Stratum    Stratum
	RawStratum uint8
	// Poll is the log2 poll interval in seconds.
	Poll int8
	// Precision is the log2 precision of the server clock in seconds.
	Precision      int8
	RootDelay      Duration32
	RootDispersion Duration32
	ReferenceID    [4]byte

	ReferenceTime   Timestamp64
	OriginTime      Timestamp64
	ReceiveTime     Timestamp64
	TransmitTime    Timestamp64
	DestinationTime Timestamp64
}

// DecodePacket decodes the first 48 bytes of b. Only the length is
// checked, every bit pattern decodes.
func DecodePacket(b []byte) (p *Packet, err error) {
	if len(b) < PacketSize {
		err = &ShortPacketError{Len: len(b), Need: PacketSize}
		return
	}
	// BCE
	_ = b[PacketSize-1]

	p = &Packet{
		Leap:       decodeLeap(getLi(b)),
		Version:    getVersion(b),
		Mode:       decodeMode(getMode(b)),
		RawStratum: b[StratumPos],
		Stratum:    decodeStratum(b[StratumPos]),
		Poll:       asSignedByte(b[PollPos]),
		Precision:  asSignedByte(b[ClockPrecisionPos]),
	}

	if p.RootDelay, err = ParseDuration32(b[RootDelayPos:]); err != nil {
		return nil, err
	}
	if p.RootDispersion, err = ParseDuration32(b[RootDispersionPos:]); err != nil {
		return nil, err
	}
	copy(p.ReferenceID[:], b[ReferIDPos:ReferIDPos+4])

	for _, f := range []struct {
		pos int
		ts  *Timestamp64
	}{
		{ReferenceTimeStamp, &p.ReferenceTime},
		{OriginTimeStamp, &p.OriginTime},
		{ReceiveTimeStamp, &p.ReceiveTime},
		{TransmitTimeStamp, &p.TransmitTime},
	} {
		if *f.ts, err = ParseTimestamp64(b[f.pos:]); err != nil {
			return nil, err
		}
	}
	return
}

// Encode writes the wire image of p into the first 48 bytes of m.
func (p *Packet) Encode(m []byte) (err error) {
	if len(m) < PacketSize {
		return &ShortPacketError{Len: len(m), Need: PacketSize}
	}
	m[LiVnModePos] = 0
	setLi(m, p.Leap)
	setVersion(m, p.Version)
	setMode(m, p.Mode)
	setUint8(m, StratumPos, p.RawStratum)
	setInt8(m, PollPos, p.Poll)
	setInt8(m, ClockPrecisionPos, p.Precision)
	if err = p.RootDelay.Put(m, RootDelayPos); err != nil {
		return
	}
	if err = p.RootDispersion.Put(m, RootDispersionPos); err != nil {
		return
	}
	setUint32(m, ReferIDPos, p.ReferenceIDUint32())
	if err = p.ReferenceTime.Put(m, ReferenceTimeStamp); err != nil {
		return
	}
	if err = p.OriginTime.Put(m, OriginTimeStamp); err != nil {
		return
	}
	if err = p.ReceiveTime.Put(m, ReceiveTimeStamp); err != nil {
		return
	}
	return p.TransmitTime.Put(m, TransmitTimeStamp)
}

// Bytes returns a fresh 48-byte wire image.
func (p *Packet) Bytes() []byte {
	m := make([]byte, PacketSize)
	// cannot fail on a buffer of PacketSize
	_ = p.Encode(m)
	return m
}

// ReferenceIDUint32 is the reference identifier as a big-endian integer.
func (p *Packet) ReferenceIDUint32() uint32 {
	return binary.BigEndian.Uint32(p.ReferenceID[:])
}

// ReferenceIdentifier interprets the reference id field. Stratum 0 and 1
// carry four ASCII characters, returned as is including NUL padding.
// Stratum 2-15 carries an IPv4 address under version 3. Under version 4 the
// field of a secondary server is an address hash that is not decoded, and
// the empty string is returned, as for reserved strata. ok is false for
// any other stratum, including 16 (unsynchronized).
func (p *Packet) ReferenceIdentifier() (id string, ok bool) {
	switch p.Stratum {
	case StratumUnavailable, StratumPrimaryReference:
		return string(p.ReferenceID[:]), true
	case StratumSecondaryReference:
		if p.Version == 3 {
			return fmt.Sprintf("%d.%d.%d.%d",
				p.ReferenceID[0], p.ReferenceID[1], p.ReferenceID[2], p.ReferenceID[3]), true
		}
		return "", true
	case StratumReserved:
		return "", true
	}
	return "", false
}

// KissCode returns the Kiss-o'-Death code of a stratum 0 packet.
func (p *Packet) KissCode() (code string, ok bool) {
	if p.Stratum != StratumUnavailable {
		return
	}
	code = string(p.ReferenceID[:])
	_, ok = kissCodes[code]
	return
}

// PollInterval is 2^Poll seconds. Exponents that do not fit a
// time.Duration saturate.
func (p *Packet) PollInterval() time.Duration {
	return log2ToDuration(p.Poll)
}

func (p *Packet) PrecisionDuration() time.Duration {
	return log2ToDuration(p.Precision)
}

func log2ToDuration(e int8) time.Duration {
	if e < 0 {
		if e < -62 {
			return 0
		}
		return time.Duration(float64(time.Second) / float64(uint64(1)<<uint(-e)))
	}
	if e > 33 {
		return math.MaxInt64
	}
	return time.Second << uint(e)
}
