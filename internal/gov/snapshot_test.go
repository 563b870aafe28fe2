package gov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

func TestSnapshotGuard(t *testing.T) {
	withFixture(t, testConfig(), func(f *fixture) {
		id := f.propose(t, 0)

		_, err := f.mgr.TakeSnapshot(f.ctx, at("x", 89), id)
		assert.ErrorIs(t, err, ir.ErrSnapshotTooEarly)

		_, err = f.mgr.TakeSnapshot(f.ctx, at("x", 1), 77)
		assert.ErrorIs(t, err, ir.ErrNotFound)

		total, err := f.mgr.TakeSnapshot(f.ctx, at("x", 90), id)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), total)

		_, err = f.mgr.TakeSnapshot(f.ctx, at("x", 91), id)
		assert.ErrorIs(t, err, ir.ErrSnapshotAlreadyTaken)

		late := f.propose(t, 0)
		_, err = f.mgr.TakeSnapshot(f.ctx, at("x", 100), late)
		assert.ErrorIs(t, err, ir.ErrSnapshotTooEarly)
		_, err = f.mgr.TakeSnapshot(f.ctx, at("x", 150), late)
		assert.ErrorIs(t, err, ir.ErrSnapshotTooEarly)

		_, err = f.mgr.Tally(f.ctx, at("x", 100), late)
		require.NoError(t, err)
		_, err = f.mgr.TakeSnapshot(f.ctx, at("x", 100), late)
		assert.ErrorIs(t, err, ir.ErrProposalNotInProgress)
	})
}

func TestSnapshotWindowCoversWholePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.SnapshotWindow = cfg.VotingPeriod
	withFixture(t, cfg, func(f *fixture) {
		id := f.propose(t, 0)
		total, err := f.mgr.TakeSnapshot(f.ctx, at("x", 0), id)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), total)
	})
}
