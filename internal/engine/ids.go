package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUIDv7Generator issues time-ordered UUIDv7 invocation ids, so ids sort
// in roughly commit order across stores.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7. It panics only if the system
// random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialGenerator issues prefix-1, prefix-2, ... and is meant for tests
// and golden output where ids must be stable.
type SequentialGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewSequentialGenerator returns a generator whose first id is prefix-1.
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.next.Add(1))
}
