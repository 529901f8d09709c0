package ports

import (
	"math/rand/v2"
)

// RNGPort provides seeded random streams for deterministic generation
type RNGPort interface {
	// Seed returns the top-level seed streams are derived from.
	Seed() int64

	// Reseed replaces the top-level seed with a fresh random one and returns it.
	// When verbose is set the new value is logged so the run can be replayed.
	Reseed(verbose bool) int64

	// SetSeed fixes the top-level seed.
	SetSeed(seed int64)

	// Stream returns the independent stream for one attempt at one trace slot.
	// The same (seed, slot, attempt) always yields the same sequence, whatever
	// order or goroutine the streams are requested from.
	Stream(slot, attempt int) rand.Source
}
