// Package idgen produces identifiers for transactions, receipts, slips and jobs.
package idgen

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix is used when callers pass an empty prefix.
const DefaultPrefix = "TXN"

// Generator returns a new identifier carrying prefix.
type Generator interface {
	NewID(prefix string) string
}

func withDefault(prefix string) string {
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

// UUID generates "prefix-<uuidv4>" identifiers.
type UUID struct{}

// NewID implements Generator.
func (UUID) NewID(prefix string) string {
	return withDefault(prefix) + "-" + uuid.NewString()
}

// Sequence generates monotonic "prefix-000001" identifiers. Safe for concurrent use.
type Sequence struct {
	n     atomic.Uint64
	Width int
}

// NewSequence returns a Sequence whose next id is start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{Width: 6}
	s.n.Store(start)
	return s
}

// NewID implements Generator.
func (s *Sequence) NewID(prefix string) string {
	return fmt.Sprintf("%s-%0*d", withDefault(prefix), s.Width, s.n.Add(1))
}

// Legacy reproduces the "prefix-<6 random digits>-<last 6 ms digits>" shape
// shown on older receipts. Collisions are possible; prefer UUID or Sequence.
type Legacy struct {
	Now  func() time.Time
	Rand func() int
}

// NewID implements Generator.
func (l Legacy) NewID(prefix string) string {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	random := 100000 + rand.IntN(900000)
	if l.Rand != nil {
		random = l.Rand()
	}
	ms := strconv.FormatInt(now().UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("%s-%d-%s", withDefault(prefix), random, ms)
}

// Digits returns a fixed-width random decimal string, e.g. receipt numbers.
func Digits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rand.IntN(10))
	}
	if n > 0 && b[0] == '0' {
		b[0] = byte('1' + rand.IntN(9))
	}
	return string(b)
}

// New picks a Generator by scheme name: "uuid", "sequence" or "legacy".
func New(scheme string) Generator {
	switch scheme {
	case "sequence":
		return NewSequence(0)
	case "legacy":
		return Legacy{}
	default:
		return UUID{}
	}
}

var (
	_ Generator = UUID{}
	_ Generator = (*Sequence)(nil)
	_ Generator = Legacy{}
)
