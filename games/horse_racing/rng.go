package horse_racing

import (
	"math/rand/v2"
)

// RNG is the random source a race draws speeds and odds from.
// Float64 must return values in [0, 1).
type RNG interface {
	Float64() float64
}

// NewRNG returns a PCG generator seeded from seed. Two generators built from the
// same seed produce the same sequence, and therefore the same races.
func NewRNG(seed int64) RNG {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// NewRandomRNG returns a generator seeded from the runtime entropy source.
func NewRandomRNG() RNG {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
