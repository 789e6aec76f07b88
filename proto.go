package sntp

import (
	"encoding/binary"
)

const (
	PacketSize = 48
	Port       = 123

	ntpShortLength float64 = 65536 // 2^16
)

const (
	LiVnModePos = iota
	StratumPos
	PollPos
	ClockPrecisionPos
)

const (
	RootDelayPos = iota*4 + 4
	RootDispersionPos
	ReferIDPos
)

const (
	ReferenceTimeStamp = iota*8 + 16
	OriginTimeStamp
	ReceiveTimeStamp
	TransmitTimeStamp
)

// LeapIndicator is the 2-bit leap warning.
type LeapIndicator uint8

const (
	LeapNoWarning LeapIndicator = iota
	LeapPositiveLeapSecond
	LeapNegativeLeapSecond
	LeapUnsynchronized
)

func (l LeapIndicator) String() string {
	switch l {
	case LeapNoWarning:
		return "NoWarning"
	case LeapPositiveLeapSecond:
		return "PositiveLeapSecond"
	case LeapNegativeLeapSecond:
		return "NegativeLeapSecond"
	case LeapUnsynchronized:
		return "Unsynchronized"
	}
	return "Invalid"
}

// Mode is the 3-bit association mode.
type Mode uint8

const (
	ModeReserved Mode = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControlMessage
	ModeReservedPrivate
)

func (m Mode) String() string {
	switch m {
	case ModeReserved:
		return "Reserved"
	case ModeSymmetricActive:
		return "SymmetricActive"
	case ModeSymmetricPassive:
		return "SymmetricPassive"
	case ModeClient:
		return "Client"
	case ModeServer:
		return "Server"
	case ModeBroadcast:
		return "Broadcast"
	case ModeControlMessage:
		return "NtpControlMessage"
	case ModeReservedPrivate:
		return "ReservedForPrivateUse"
	}
	return "Invalid"
}

// Stratum classifies the raw stratum byte.
type Stratum uint8

const (
	StratumInvalid Stratum = iota
	StratumUnavailable
	StratumPrimaryReference
	StratumSecondaryReference
	StratumUnsynchronized
	StratumReserved
)

func (s Stratum) String() string {
	switch s {
	case StratumUnavailable:
		return "Unavailable"
	case StratumPrimaryReference:
		return "PrimaryReference"
	case StratumSecondaryReference:
		return "SecondaryReference"
	case StratumUnsynchronized:
		return "Unsynchronized"
	case StratumReserved:
		return "Reserved"
	}
	return "Invalid"
}

// Kiss-o'-Death codes, RFC 5905 section 7.4.
const (
	kissACST = "ACST" // The association belongs to a unicast server.
	kissAUTH = "AUTH" // Server authentication failed.
	kissAUTO = "AUTO" // Autokey sequence failed.
	kissBCST = "BCST" // The association belongs to a broadcast server.
	kissCRYP = "CRYP" // Cryptographic authentication or identification failed.
	kissDENY = "DENY" // Access denied by remote server.
	kissDROP = "DROP" // Lost peer in symmetric mode.
	kissRSTR = "RSTR" // Access denied due to local policy.
	kissINIT = "INIT" // The association has not yet synchronized for the first time.
	kissMCST = "MCST" // The association belongs to a dynamically discovered server.
	kissNKEY = "NKEY" // No key found.
	kissRATE = "RATE" // Rate exceeded.
	kissRMOT = "RMOT" // Alteration of association from a remote host running ntpdc.
	kissSTEP = "STEP" // A step change in system time has occurred.
)

var kissCodes = map[string]string{
	kissACST: "association belongs to a unicast server",
	kissAUTH: "server authentication failed",
	kissAUTO: "autokey sequence failed",
	kissBCST: "association belongs to a broadcast server",
	kissCRYP: "cryptographic authentication or identification failed",
	kissDENY: "access denied by remote server",
	kissDROP: "lost peer in symmetric mode",
	kissRSTR: "access denied due to local policy",
	kissINIT: "association has not yet synchronized",
	kissMCST: "association belongs to a dynamically discovered server",
	kissNKEY: "no key found",
	kissRATE: "rate exceeded",
	kissRMOT: "alteration of association from a remote host",
	kissSTEP: "step change in system time",
}

func decodeLeap(v uint8) LeapIndicator {
	switch v & 3 {
	case 0:
		return LeapNoWarning
	case 1:
		return LeapPositiveLeapSecond
	case 2:
		return LeapNegativeLeapSecond
	case 3:
		return LeapUnsynchronized
	}
	panic("sntp: leap indicator outside 2 bits")
}

func decodeMode(v uint8) Mode {
	switch v & 7 {
	case 0:
		return ModeReserved
	case 1:
		return ModeSymmetricActive
	case 2:
		return ModeSymmetricPassive
	case 3:
		return ModeClient
	case 4:
		return ModeServer
	case 5:
		return ModeBroadcast
	case 6:
		return ModeControlMessage
	case 7:
		return ModeReservedPrivate
	}
	panic("sntp: mode outside 3 bits")
}

func decodeStratum(v uint8) Stratum {
	switch {
	case v == 0:
		return StratumUnavailable
	case v == 1:
		return StratumPrimaryReference
	case v <= 15:
		return StratumSecondaryReference
	case v == 16:
		return StratumUnsynchronized
	default:
		return StratumReserved
	}
}

// asSignedByte reinterprets a raw byte as two's complement.
func asSignedByte(v uint8) int8 {
	if v > 127 {
		return int8(int16(v) - 256)
	}
	return int8(v)
}

// The first header byte packs leap (2 bits), version (3) and mode (3).

func setLi(m []byte, li LeapIndicator) {
	m[LiVnModePos] = (m[LiVnModePos] & 0x3f) | byte(li&3)<<6
}

func setVersion(m []byte, v uint8) {
	m[LiVnModePos] = (m[LiVnModePos] & 0xc7) | (v&7)<<3
}

func setMode(m []byte, mode Mode) {
	m[LiVnModePos] = (m[LiVnModePos] & 0xf8) | byte(mode&7)
}

func getLi(m []byte) uint8      { return m[LiVnModePos] >> 6 & 3 }
func getVersion(m []byte) uint8 { return m[LiVnModePos] >> 3 & 7 }
func getMode(m []byte) uint8    { return m[LiVnModePos] & 7 }

func setUint8(m []byte, index int, value uint8) {
	m[index] = value
}

func setInt8(m []byte, index int, value int8) {
	m[index] = byte(value)
}

func setUint32(m []byte, index int, value uint32) {
	binary.BigEndian.PutUint32(m[index:], value)
}
