package postgres

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs. IDs generated within the same
// millisecond sort in generation order.
type ULIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return newULIDGeneratorWithClock(time.Now)
}

func newULIDGeneratorWithClock(now func() time.Time) *ULIDGenerator {
	return &ULIDGenerator{
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
