package sntp

import (
	"errors"
	"fmt"
)

var (
	// ErrInputTooShort reports fewer bytes than a decoder needs.
	ErrInputTooShort = errors.New("sntp: input too short")
	// ErrBadServerReply reports a reply that failed validation.
	ErrBadServerReply = errors.New("sntp: bad server reply")
	// ErrOverflow reports fixed-point arithmetic outside the int64 range.
	ErrOverflow = errors.New("sntp: arithmetic overflow")
	// ErrInvalidVersion reports a client version other than 3 or 4.
	ErrInvalidVersion = errors.New("sntp: version must be 3 or 4")
	ErrOutOfRange     = errors.New("sntp: value out of range")
)

// ShortPacketError is returned when a buffer holds fewer bytes than needed.
type ShortPacketError struct {
	Len  int
	Need int
}

func (e *ShortPacketError) Error() string {
	return fmt.Sprintf("sntp: input too short: got %d bytes, need %d", e.Len, e.Need)
}

func (e *ShortPacketError) Is(target error) bool {
	return target == ErrInputTooShort
}

// ReplyError carries the reason a server reply was rejected.
type ReplyError struct {
	Reason string
	// KissCode is set when the server answered with a Kiss-o'-Death packet.
	KissCode string
}

func (e *ReplyError) Error() string {
	return "sntp: bad server reply: " + e.Reason
}

func (e *ReplyError) Is(target error) bool {
	return target == ErrBadServerReply
}

func badReply(format string, args ...interface{}) *ReplyError {
	return &ReplyError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failure of the datagram transport. Op is one of
// "dial", "send", "receive".
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sntp: %s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
