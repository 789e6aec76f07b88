package sntp

//go:generate mockgen -destination=mock_random_test.go -package=sntp . RandomSource

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomSource yields unpredictable integers. Implementations must be safe
// for concurrent use.
type RandomSource interface {
	// Int31Range returns a uniformly distributed value in [low, high).
	Int31Range(low, high int32) int32
}

// CryptoRandom draws from crypto/rand. It panics if the system random
// source fails.
type CryptoRandom struct{}

func (CryptoRandom) Int31Range(low, high int32) int32 {
	if high <= low {
		return low
	}
	n := uint32(int64(high) - int64(low))
	// rejection sampling over the largest multiple of n
	limit := ^uint32(0) - ^uint32(0)%n
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			// only reachable when the kernel entropy source is gone
			// (go1.24 makes rand.Read infallible)
			panic("sntp: crypto/rand: " + err.Error())
		}
		v := binary.BigEndian.Uint32(b[:])
		if v < limit {
			return int32(int64(low) + int64(v%n))
		}
	}
}
