// Package entropy provides seed material for Monte Carlo workers from the
// OS entropy pool, with a time-based fallback.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Seed returns a random int64 suitable for seeding a worker's PRNG.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Seeds returns n independent seeds.
func Seeds(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = Seed()
	}
	return out
}
