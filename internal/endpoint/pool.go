package endpoint

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// ErrNotAvailable is returned when the pool has no endpoints to select from
var ErrNotAvailable = errors.New("no endpoints available")

// ErrBadIndex is returned when a Source breaks its [0, n) contract
var ErrBadIndex = errors.New("source returned an index out of range")

// Source yields uniformly distributed integers in [0, n).
// Select reports a value outside that range as ErrBadIndex.
type Source interface {
	IntN(n int) int
}

// lockedSource serializes access to a *rand.Rand, which is not safe for concurrent use
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// NewSeededSource returns a deterministic Source, safe for concurrent use
func NewSeededSource(seed uint64) Source {
	return &lockedSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// globalSource draws from the runtime-seeded top-level generator
type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// Pool holds the configured endpoint URLs.
// The list is fixed at construction, so Select needs no locking.
type Pool struct {
	urls   []string
	source Source
}

// NewPool creates a Pool over a copy of urls.
// A nil source selects from the runtime-seeded global generator.
func NewPool(urls []string, source Source) *Pool {
	if source == nil {
		source = globalSource{}
	}

	copied := make([]string, len(urls))
	copy(copied, urls)

	return &Pool{
		urls:   copied,
		source: source,
	}
}

// Select picks an endpoint uniformly at random.
// Every call is independent: no stickiness, no rotation.
func (p *Pool) Select() (string, error) {
	if len(p.urls) == 0 {
		return "", ErrNotAvailable
	}
	if len(p.urls) == 1 {
		return p.urls[0], nil
	}
	i := p.source.IntN(len(p.urls))
	if i < 0 || i >= len(p.urls) {
		return "", fmt.Errorf("%w: %d of %d", ErrBadIndex, i, len(p.urls))
	}
	return p.urls[i], nil
}

// GetAll returns a copy of all endpoints in configured order
func (p *Pool) GetAll() []string {
	result := make([]string, len(p.urls))
	copy(result, p.urls)
	return result
}

// Len returns the number of configured endpoints
func (p *Pool) Len() int {
	return len(p.urls)
}
