package memory

import (
	"fmt"
	"sync/atomic"
)

// SequenceGenerator returns zero-padded increasing ids. Tests use it to
// control the id tie-break between transactions with equal dates.
type SequenceGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewSequenceGenerator creates a generator whose ids start with prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceGenerator) Generate() string {
	return fmt.Sprintf("%s%06d", g.prefix, g.next.Add(1))
}
