package procurement

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	orderIDPrefix = "ORD-"
	// shortIDAttempts bounds retries in the four-digit space before widening.
	shortIDAttempts = 16
)

// IDGenerator allocates order IDs. One generator is shared by all sessions, so it
// serializes access to its random source.
type IDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIDGenerator builds a generator. A nil source seeds from the clock.
func NewIDGenerator(src rand.Source) *IDGenerator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &IDGenerator{rng: rand.New(src)}
}

// Next returns an ID for which taken reports false. It tries the short ORD-NNNN form
// first and falls back to a UUID-derived suffix once the short space keeps colliding.
func (g *IDGenerator) Next(taken func(string) bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for range shortIDAttempts {
		id := fmt.Sprintf("%s%04d", orderIDPrefix, 1000+g.rng.Intn(9000))
		if taken == nil || !taken(id) {
			return id
		}
	}

	for {
		hex := strings.ReplaceAll(uuid.NewString(), "-", "")
		id := orderIDPrefix + strings.ToUpper(hex[:12])
		if taken == nil || !taken(id) {
			return id
		}
	}
}
