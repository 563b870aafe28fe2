package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/stakegov/internal/ir"
)

// createTestStore creates a file-backed store under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createGenesisStore returns a store with the default config written.
func createGenesisStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.Genesis(context.Background(), ir.DefaultConfig())
	})
	if err != nil {
		t.Fatalf("Genesis() failed: %v", err)
	}
	return s
}

// mustUpdate runs fn in a committed transaction.
func mustUpdate(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := s.Update(ctx, func(tx *Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
}

// mustView runs fn in a read transaction.
func mustView(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := s.View(ctx, func(tx *Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("View() failed: %v", err)
	}
}
