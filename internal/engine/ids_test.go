package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator("inv")
	assert.Equal(t, "inv-1", g.Generate())
	assert.Equal(t, "inv-2", g.Generate())
	assert.Equal(t, "x-1", NewSequentialGenerator("x").Generate())
}
