package store

import (
	"context"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

// OutboxEntry is one action handed to the external executor.
type OutboxEntry struct {
	ProposalID  uint64    `json:"proposal_id"`
	Index       int       `json:"index"`
	Action      ir.Action `json:"action"`
	ActionsHash string    `json:"actions_hash"`
	EnqueuedAt  uint64    `json:"enqueued_at"`
}

// AppendOutbox writes the entries. A proposal's list can be written once;
// a second write violates the primary key.
func (t *Tx) AppendOutbox(ctx context.Context, entries []OutboxEntry) error {
	for _, e := range entries {
		msg, err := marshalObject(e.Action.Msg)
		if err != nil {
			return err
		}
		at, err := sqlTime(e.EnqueuedAt)
		if err != nil {
			return err
		}
		err = t.exec(ctx, `
			INSERT INTO outbox (proposal_id, idx, kind, msg, actions_hash, enqueued_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ProposalID, e.Index, e.Action.Kind, msg, e.ActionsHash, at)
		if err != nil {
			return fmt.Errorf("write outbox entry %d/%d: %w", e.ProposalID, e.Index, err)
		}
	}
	return nil
}

// Outbox returns entries in proposal and action order. proposalID > 0
// restricts the listing to that proposal.
func (t *Tx) Outbox(ctx context.Context, proposalID uint64) ([]OutboxEntry, error) {
	rows, err := t.query(ctx, `
		SELECT proposal_id, idx, kind, msg, actions_hash, enqueued_at FROM outbox
		WHERE ? = 0 OR proposal_id = ?
		ORDER BY proposal_id ASC, idx ASC
	`, proposalID, proposalID)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	entries := []OutboxEntry{}
	for rows.Next() {
		var (
			e        OutboxEntry
			kind     string
			msg      string
			enqueued int64
		)
		if err := rows.Scan(&e.ProposalID, &e.Index, &kind, &msg, &e.ActionsHash, &enqueued); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		obj, err := unmarshalObject(msg)
		if err != nil {
			return nil, err
		}
		e.Action = ir.Action{Kind: kind, Msg: obj}
		e.EnqueuedAt = uint64(enqueued)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}
