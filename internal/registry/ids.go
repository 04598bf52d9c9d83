package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces candidate save IDs.
// Implemented by UUIDGenerator (production), FixedGenerator and
// ConstantGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Clock supplies creation times.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// UUIDGenerator generates random (version 4) UUIDs.
//
// 122 random bits make a collision practically impossible; the registry
// still checks for one and retries a bounded number of times.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate creates a new random UUID as a hyphenated string.
//
// Panics if the system random source fails.
func (UUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// FixedGenerator returns predetermined IDs in order, for tests.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("a", "a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, so a test that allocates more saves
// than it planned for fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// ConstantGenerator returns the same ID every time.
// Used to drive the collision retry loop to exhaustion.
type ConstantGenerator struct {
	ID string
}

// Generate returns the constant ID.
func (g ConstantGenerator) Generate() string {
	return g.ID
}
