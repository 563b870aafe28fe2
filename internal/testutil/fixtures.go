// Package testutil holds helpers shared by package tests and the scenario
// harness.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenStore opens an in-memory store that is closed when the test ends.
func OpenStore(tb testing.TB) *store.Store {
	tb.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = s.Close() })
	return s
}
