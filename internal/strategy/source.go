package strategy

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
	"sync"
)

// Source produces uniform random floats in [0, 1), used to compute
// jitter. Implementations must be safe for concurrent use, since
// completion callbacks for different callables may fire on different
// goroutines simultaneously.
type Source interface {
	Float64() float64
}

// lockedSource wraps a math/rand/v2 generator with a mutex. The
// generator itself is not safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewCryptoSeededSource returns a jitter Source seeded from
// crypto/rand, so that independently started workers (e.g. identical
// processes in a fleet) do not end up with correlated jitter.
func NewCryptoSeededSource() Source {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// crypto/rand failing is exceptionally rare (kernel entropy
		// source unavailable); fall back to a fixed seed rather than
		// panicking the whole engine over jitter cosmetics.
		binary.LittleEndian.PutUint64(seed[0:8], 0x9e3779b97f4a7c15)
		binary.LittleEndian.PutUint64(seed[8:16], 0xbf58476d1ce4e5b9)
	}
	seed1 := binary.LittleEndian.Uint64(seed[0:8])
	seed2 := binary.LittleEndian.Uint64(seed[8:16])
	return &lockedSource{rng: mathrand.New(mathrand.NewPCG(seed1, seed2))}
}

// NewFixedSource returns a deterministic Source that always yields the
// given value, for tests that need to assert exact jittered deadlines.
func NewFixedSource(value float64) Source {
	return fixedSource(value)
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }
