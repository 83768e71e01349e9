package engine

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking. Every
// draw advances the position, so a save can restore the exact stream and
// pick selections stay reproducible across save/load.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// PickIndex returns an index in [0, n). n must be positive. Each pick
// consumes exactly one source draw, so RestoreRNG can replay the stream
// by position alone.
func (r *RNG) PickIndex(n int) int {
	r.pos++
	return int(r.src.Int63() % int64(n))
}

// Seed returns the seed the stream was created from.
func (r *RNG) Seed() int64 { return r.seed }

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 { return r.pos }

// RestoreRNG creates an RNG and advances it to the given position,
// reproducing the exact stream state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
