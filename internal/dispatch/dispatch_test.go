package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func transfer(to string, amount int64) ir.Action {
	return ir.Action{Kind: KindTransfer, Msg: ir.IRObject{
		"to": ir.IRString(to), "denom": ir.IRString("ustake"), "amount": ir.IRInt(amount),
	}}
}

func TestRegistryValidate(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{KindCustom, KindTransfer, KindUpdateMetadata}, r.Kinds())

	tests := []struct {
		name    string
		actions []ir.Action
		wantErr bool
	}{
		{"empty list", nil, false},
		{"transfer", []ir.Action{transfer("bob", 5)}, false},
		{"metadata", []ir.Action{{Kind: KindUpdateMetadata, Msg: ir.IRObject{"key": ir.IRString("k"), "value": ir.IRString("")}}}, false},
		{"custom", []ir.Action{{Kind: KindCustom, Msg: ir.IRObject{"type": ir.IRString("upgrade")}}}, false},
		{"unknown kind", []ir.Action{{Kind: "exec_shell"}}, true},
		{"zero transfer", []ir.Action{transfer("bob", 0)}, true},
		{"transfer missing denom", []ir.Action{{Kind: KindTransfer, Msg: ir.IRObject{"to": ir.IRString("bob"), "amount": ir.IRInt(1)}}}, true},
		{"empty metadata key", []ir.Action{{Kind: KindUpdateMetadata, Msg: ir.IRObject{"key": ir.IRString(""), "value": ir.IRString("v")}}}, true},
		{"custom without type", []ir.Action{{Kind: KindCustom, Msg: ir.IRObject{}}}, true},
		{"second action bad", []ir.Action{transfer("bob", 1), {Kind: "nope"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.actions)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, ir.CodeInvalidAction, ir.CodeOf(err))
		})
	}
}

func TestDispatchSubmitsWholeList(t *testing.T) {
	var got []ir.Action
	sub := SubmitterFunc(func(_ context.Context, id uint64, actions []ir.Action) error {
		assert.Equal(t, uint64(7), id)
		got = actions
		return nil
	})
	d := New(DefaultRegistry(), sub, quiet)

	p := ir.Proposal{ID: 7, Actions: []ir.Action{transfer("a", 1), transfer("b", 2)}}
	require.NoError(t, d.Dispatch(context.Background(), p))
	assert.Equal(t, p.Actions, got)
}

func TestDispatchFailureIsExecutionFailed(t *testing.T) {
	cause := errors.New("executor offline")
	d := New(DefaultRegistry(), SubmitterFunc(func(context.Context, uint64, []ir.Action) error {
		return cause
	}), quiet)

	err := d.Dispatch(context.Background(), ir.Proposal{ID: 1})
	assert.ErrorIs(t, err, ir.ErrExecutionFailed)
	assert.ErrorIs(t, err, cause)
}

func TestDispatchRejectsInvalidActions(t *testing.T) {
	called := false
	d := New(DefaultRegistry(), SubmitterFunc(func(context.Context, uint64, []ir.Action) error {
		called = true
		return nil
	}), quiet)

	err := d.Dispatch(context.Background(), ir.Proposal{ID: 1, Actions: []ir.Action{{Kind: "bogus"}}})
	assert.ErrorIs(t, err, ir.ErrExecutionFailed)
	assert.False(t, called)
}

func TestDispatchWithoutSubmitter(t *testing.T) {
	d := New(DefaultRegistry(), nil, quiet)
	err := d.Dispatch(context.Background(), ir.Proposal{ID: 1})
	assert.ErrorIs(t, err, ir.ErrExecutionFailed)
}

func TestOutboxRecordsActions(t *testing.T) {
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	actions := []ir.Action{transfer("a", 1), {Kind: KindCustom, Msg: ir.IRObject{"type": ir.IRString("noop")}}}
	hash, err := ir.ActionsHash(actions)
	require.NoError(t, err)

	err = s.Update(ctx, func(tx *store.Tx) error {
		require.NoError(t, tx.PutProposal(ctx, ir.Proposal{ID: 3, Status: ir.StatusPassed, Actions: actions}))
		d := New(DefaultRegistry(), NewOutbox(tx, 42), quiet)
		return d.Dispatch(ctx, ir.Proposal{ID: 3, Actions: actions})
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx *store.Tx) error {
		entries, err := tx.Outbox(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for i, e := range entries {
			assert.Equal(t, i, e.Index)
			assert.Equal(t, hash, e.ActionsHash)
			assert.Equal(t, uint64(42), e.EnqueuedAt)
			assert.Equal(t, actions[i], e.Action)
		}
		return nil
	})
	require.NoError(t, err)
}
