package broker

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// seqRand is a guarded deterministic random stream. The broker keeps one for
// account IDs; every account derives its own from (seed, accountID) so
// parallel accounts replay byte-identically.
type seqRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newSeqRand(seed int64) *seqRand {
	return &seqRand{r: rand.New(rand.NewSource(seed))}
}

// deriveRand returns a stream seeded from the broker seed and an account ID.
func deriveRand(seed int64, accountID string) *seqRand {
	h := fnv.New64a()
	h.Write([]byte(accountID))
	return newSeqRand(seed ^ int64(h.Sum64()))
}

// Float64 draws the next value in [0,1).
func (s *seqRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// suffix4 draws a 4-character alphanumeric ID suffix.
func (s *seqRand) suffix4() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 4)
	for i := range buf {
		buf[i] = idAlphabet[s.r.Intn(len(idAlphabet))]
	}
	return string(buf)
}

// newID formats an entity ID like "ORD-1700000000000-ab3x".
func (s *seqRand) newID(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%d-%s", prefix, at.UnixMilli(), s.suffix4())
}
