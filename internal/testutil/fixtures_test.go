package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/store"
)

func TestOpenStore(t *testing.T) {
	s := OpenStore(t)
	ctx := context.Background()

	err := s.View(ctx, func(tx *store.Tx) error {
		ok, err := tx.Initialized(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestDiscardLogger(t *testing.T) {
	l := DiscardLogger()
	require.NotNil(t, l)
	l.Info("dropped", "key", 1)
}
