// Package rng provides the seeded random streams the generator draws from.
//
// There is no process-global state: every trace attempt gets its own PCG
// stream whose seeds are derived from the top-level seed, the trace slot and
// the attempt number. Streams can therefore be consumed in any order, or in
// parallel, without changing what they produce.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"

	"fiddler/internal"
	"fiddler/ports"
)

// Seeded implements ports.RNGPort.
type Seeded struct {
	mu     sync.RWMutex
	seed   int64
	logger *internal.Logger
}

var _ ports.RNGPort = (*Seeded)(nil)

// NewSeeded creates streams derived from seed.
func NewSeeded(seed int64, logger *internal.Logger) *Seeded {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Seeded{seed: seed, logger: logger.Named("rng")}
}

// NewRandom creates streams from a fresh random seed.
func NewRandom(verbose bool, logger *internal.Logger) *Seeded {
	s := NewSeeded(0, logger)
	s.Reseed(verbose)
	return s
}

func (s *Seeded) Seed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed
}

func (s *Seeded) SetSeed(seed int64) {
	s.mu.Lock()
	s.seed = seed
	s.mu.Unlock()
}

// Reseed draws four bytes from the OS entropy source, the same width the
// desktop tool used, so logged seeds stay short enough to retype.
func (s *Seeded) Reseed(verbose bool) int64 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	seed := int64(binary.LittleEndian.Uint32(buf[:]))
	s.SetSeed(seed)
	if verbose {
		s.logger.Info("Random seed value: %d", seed)
	}
	return seed
}

func (s *Seeded) Stream(slot, attempt int) mrand.Source {
	seed := uint64(s.Seed())
	hi := splitmix64(seed ^ splitmix64(uint64(slot)+0x632be59bd9b4e019))
	lo := splitmix64(hi ^ splitmix64(uint64(attempt)+0x9e3779b97f4a7c15))
	return mrand.NewPCG(hi, lo)
}

// splitmix64 is the finalizer from Steele et al., used to decorrelate the
// structured (seed, slot, attempt) inputs before seeding PCG.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
