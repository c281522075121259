package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs mints "<prefix>-1", "<prefix>-2", ... job ids.
//
// Unlike engine.FixedGenerator it never runs out, which suits tests that
// do not care how many jobs a call creates.
//
// Thread-safety: safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "job".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "job"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id. Implements engine.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
