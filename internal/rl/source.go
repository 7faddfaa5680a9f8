package rl

import (
	"math/rand/v2"
	"time"
)

// Source is the randomness the agent draws from for exploration and
// tie-breaking. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// IntN returns a uniform value in [0,n).
	IntN(n int) int
}

// NewSource returns a PCG-backed source. A zero seed is replaced by the
// current time so production agents do not repeat the same sequence.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
