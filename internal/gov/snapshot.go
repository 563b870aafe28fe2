package gov

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
)

// TakeSnapshot freezes the quorum denominator at the current total_share.
// It is allowed once per proposal, while in progress, during the last
// snapshot_window units before end_time. Outside that window, on either
// side, it fails with SNAPSHOT_TOO_EARLY.
func (m *Manager) TakeSnapshot(ctx context.Context, env ir.Env, id uint64) (uint64, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.Status != ir.StatusInProgress {
		return 0, ir.Errorf(ir.CodeProposalNotInProgress, "proposal %d is %s", id, p.Status)
	}
	if p.SnapshotTotal != nil {
		return 0, ir.Errorf(ir.CodeSnapshotAlreadyTaken,
			"proposal %d snapshot already taken (%d)", id, *p.SnapshotTotal)
	}
	opens := p.EndTime - min(m.cfg.SnapshotWindow, p.EndTime)
	switch {
	case env.Now < opens:
		return 0, ir.Errorf(ir.CodeSnapshotTooEarly, "snapshot window for proposal %d opens at %d", id, opens)
	case env.Now >= p.EndTime:
		return 0, ir.Errorf(ir.CodeSnapshotTooEarly, "snapshot window for proposal %d closed at %d", id, p.EndTime)
	}

	totals, err := m.ledger.Totals(ctx)
	if err != nil {
		return 0, err
	}
	total := totals.TotalShare
	p.SnapshotTotal = &total
	return total, m.tx.PutProposal(ctx, p)
}
