package dispatch

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// Outbox is the default Submitter. It records the action list in the
// store's outbox table inside the current transaction, where an external
// executor polls for it. The list is written all-or-nothing with the rest
// of the invocation.
type Outbox struct {
	tx  *store.Tx
	now uint64
}

// NewOutbox returns an outbox bound to tx that stamps entries with now.
func NewOutbox(tx *store.Tx, now uint64) *Outbox {
	return &Outbox{tx: tx, now: now}
}

// Submit appends the actions for proposalID.
func (o *Outbox) Submit(ctx context.Context, proposalID uint64, actions []ir.Action) error {
	hash, err := ir.ActionsHash(actions)
	if err != nil {
		return err
	}
	entries := make([]store.OutboxEntry, len(actions))
	for i, a := range actions {
		entries[i] = store.OutboxEntry{
			ProposalID:  proposalID,
			Index:       i,
			Action:      a,
			ActionsHash: hash,
			EnqueuedAt:  o.now,
		}
	}
	return o.tx.AppendOutbox(ctx, entries)
}
