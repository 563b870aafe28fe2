package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/testutil"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: "invocation", Op: ir.OpStake, Sender: "alice", Args: ir.IRObject{"amount": ir.IRInt(10)}, Seq: 1},
		{Type: "completion", OutputCase: CaseOK, Seq: 2},
		{Type: "invocation", Op: ir.OpCastVote, Sender: "alice", Args: ir.IRObject{"option": ir.IRString("yes")}, Seq: 3},
		{Type: "completion", OutputCase: "VOTING_CLOSED", Seq: 4},
		{Type: "invocation", Op: ir.OpUnstake, Sender: "alice", Args: ir.IRObject{"shares": ir.IRInt(4)}, Seq: 5},
		{Type: "completion", OutputCase: CaseOK, Seq: 6},
		{Type: "invocation", Op: ir.OpStake, Sender: "bob", Args: ir.IRObject{"amount": ir.IRInt(3)}, Seq: 7},
		{Type: "completion", OutputCase: CaseOK, Seq: 8},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: ir.OpStake, Args: map[string]any{"amount": 3}}))
	// Rejected invocations still appear in the trace.
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: ir.OpCastVote}))

	err := assertTraceContains(trace, Assertion{Op: ir.OpStake, Args: map[string]any{"amount": 11}})
	require.Error(t, err)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Equal(t, "not found in trace", aerr.Actual)
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []ir.Op{ir.OpStake, ir.OpUnstake}}))

	err := assertTraceOrder(trace, Assertion{Ops: []ir.Op{ir.OpUnstake, ir.OpStake}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	// cast_vote was rejected, so it never committed.
	err = assertTraceOrder(trace, Assertion{Ops: []ir.Op{ir.OpStake, ir.OpCastVote}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing op: cast_vote")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: ir.OpStake, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: ir.OpCastVote, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: ir.OpUnstake, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 committed")
}

func TestAssertFinalState(t *testing.T) {
	ctx := context.Background()
	st := testutil.OpenStore(t)
	e := engine.New(st, engine.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, e.Init(ctx, ir.DefaultConfig()))
	_, err := e.Apply(ctx, ir.Invocation{
		Op: ir.OpMint, Sender: "admin", Now: 4,
		Args: ir.Args("to", "alice", "amount", 70),
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "amount as integer",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address": "alice", "denom": "ustake"},
				Expect: map[string]any{"amount": 70},
			},
		},
		{
			name: "amount as string",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address": "alice"},
				Expect: map[string]any{"amount": "70"},
			},
		},
		{
			name: "single-row table",
			a: Assertion{
				Table:  "ledger_state",
				Expect: map[string]any{"last_time": 4, "invocation_seq": 1, "total_share": 0},
			},
		},
		{
			name: "wrong value",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address": "alice"},
				Expect: map[string]any{"amount": 71},
			},
			wantErr: "balances.amount = 70",
		},
		{
			name: "missing row",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address": "bob"},
				Expect: map[string]any{"amount": 0},
			},
			wantErr: "row not found",
		},
		{
			name: "unknown column",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address": "alice"},
				Expect: map[string]any{"balance": 70},
			},
			wantErr: `column "balance"`,
		},
		{
			name: "supply row",
			a: Assertion{
				Table:  "supplies",
				Expect: map[string]any{"amount": 70},
			},
		},
		{
			name: "bad table name",
			a: Assertion{
				Table:  "balances; DROP TABLE balances",
				Expect: map[string]any{"amount": 70},
			},
			wantErr: "invalid table name",
		},
		{
			name: "bad where column",
			a: Assertion{
				Table:  "balances",
				Where:  map[string]any{"address = address OR 1": 1},
				Expect: map[string]any{"amount": 70},
			},
			wantErr: "invalid column name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: ir.OpStake, Count: 2},
		{Type: AssertTraceCount, Op: ir.OpStake, Count: 5},
		{Type: AssertFinalState, Table: "accounts", Expect: map[string]any{"share": 1}},
		{Type: AssertInvariants},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 4)
	assert.Contains(t, errs[0], "5 committed stake")
	assert.Contains(t, errs[1], "final_state requires a store")
	assert.Contains(t, errs[2], "invariants requires an engine")
	assert.Contains(t, errs[3], `unknown assertion type "bogus"`)
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(5, int64(5)))
	assert.True(t, stateValuesEqual(5, "5"))
	assert.True(t, stateValuesEqual("2.5", []byte("2.5")))
	assert.True(t, stateValuesEqual(uint64(18446744073709551615), "18446744073709551615"))
	assert.True(t, stateValuesEqual(nil, nil))
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.False(t, stateValuesEqual(5, "05"))
	assert.False(t, stateValuesEqual(nil, "0"))
}
