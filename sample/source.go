package sample

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source produces uniformly distributed integers. IntN returns a value in
// [0, n) and is only called with n > 0.
type Source interface {
	IntN(n int) int
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(n int) int

func (f SourceFunc) IntN(n int) int { return f(n) }

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default returns a Source backed by the math/rand/v2 top-level generator.
// It is safe for concurrent use and randomly seeded at process start.
func Default() Source { return globalSource{} }

// lockedSource serializes access to a generator that is not itself safe for
// concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeeded returns a deterministic Source. Two sources created with the same
// seed produce the same sequence of values.
func NewSeeded(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
