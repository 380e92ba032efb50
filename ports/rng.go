package ports

import (
	"math/rand"
)

// RNG provides seeded random sources for deterministic resampling. The
// pseudo-ensemble generator draws all of its randomness through this port
// so that seeded runs reproduce bit-for-bit.
type RNG interface {
	// Stream returns an independent deterministic source for a named
	// operation (e.g. one bootstrap round).
	Stream(name string, round int) *rand.Rand
}

// SeededRNG derives per-operation streams from a single base seed.
type SeededRNG struct {
	Seed int64
}

// NewSeededRNG creates an RNG rooted at the given seed.
func NewSeededRNG(seed int64) *SeededRNG {
	return &SeededRNG{Seed: seed}
}

// Stream mixes the operation name and round into the base seed. Streams for
// distinct (name, round) pairs are independent and stable across runs.
func (r *SeededRNG) Stream(name string, round int) *rand.Rand {
	seed := r.Seed
	for _, c := range name {
		seed = seed*31 + int64(c)
	}
	seed = seed*31 + int64(round)
	return rand.New(rand.NewSource(seed))
}
