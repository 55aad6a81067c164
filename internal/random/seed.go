// Package random generates seeds for simulation runs that were started
// without one.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// MustSeed is NewSeed for callers that cannot recover from a broken entropy
// source.
func MustSeed() uint64 {
	seed, err := NewSeed()
	if err != nil {
		panic(err)
	}
	return seed
}
