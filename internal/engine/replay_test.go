package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

// populate drives a store through staking, governance and rewards.
func populate(t *testing.T, e *Engine) {
	t.Helper()
	for _, inv := range []ir.Invocation{
		call(ir.OpMint, "admin", 0, "to", "alice", "amount", 500),
		call(ir.OpMint, "admin", 0, "to", "bob", "amount", 500),
		call(ir.OpMint, "admin", 0, "to", "admin", "denom", "ureward", "amount", 1000),
		call(ir.OpStake, "alice", 0, "amount", 300),
		call(ir.OpStake, "bob", 0, "amount", 100),
		call(ir.OpInstantiate, "admin", 0, "duration", 100, "reward_token", "ureward", "rate", 10),
		call(ir.OpCreateProposal, "bob", 5, "deposit", 100, "title", "Raise quorum"),
		call(ir.OpCastVote, "alice", 10, "proposal_id", 1, "option", "yes", "weight", 200),
		call(ir.OpUnstake, "bob", 20, "shares", 50),
		call(ir.OpTakeSnapshot, "bob", 96, "proposal_id", 1),
		call(ir.OpTally, "bob", 105, "proposal_id", 1),
		call(ir.OpUpdateSchedules, "bob", 110),
		call(ir.OpClaimRewards, "alice", 110),
	} {
		mustApply(t, e, inv)
	}
}

func TestReplayReproducesLog(t *testing.T) {
	ctx := context.Background()
	src := newEngine(t, testConfig())
	populate(t, src)

	recs, err := src.Invocations(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 13)

	dst := newEngine(t, testConfig(), WithIDGenerator(NewSequentialGenerator("other")))
	report, err := Replay(ctx, dst, recs)
	require.NoError(t, err)
	assert.True(t, report.OK(), "%+v", report.Mismatches)
	assert.Equal(t, 13, report.Applied)

	want, err := src.State(ctx)
	require.NoError(t, err)
	got, err := dst.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	replayed, err := dst.Invocations(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, recs[0].ID, replayed[0].ID)
}

func TestReplayReportsDivergence(t *testing.T) {
	ctx := context.Background()
	src := newEngine(t, testConfig())
	populate(t, src)
	recs, err := src.Invocations(ctx, 0, 4)
	require.NoError(t, err)

	recs[3].Result = ir.IRObject{"minted_shares": ir.IRInt(1)}
	recs[2].Digest = "0000"

	report, err := Replay(ctx, newEngine(t, testConfig()), recs)
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Mismatches, 2)
	assert.Equal(t, "digest", report.Mismatches[0].Field)
	assert.Equal(t, int64(3), report.Mismatches[0].Seq)
	assert.Equal(t, "result", report.Mismatches[1].Field)
	assert.Equal(t, `{"minted_shares":300}`, report.Mismatches[1].Got)
}

func TestReplayStopsOnRejection(t *testing.T) {
	ctx := context.Background()
	src := newEngine(t, testConfig())
	populate(t, src)
	recs, err := src.Invocations(ctx, 0, 0)
	require.NoError(t, err)

	// Without the mints, alice cannot stake.
	report, err := Replay(ctx, newEngine(t, testConfig()), recs[3:])
	assert.ErrorIs(t, err, ir.ErrInsufficientFunds)
	assert.Zero(t, report.Applied)
}
