package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
)

const proposalColumns = `id, creator, title, description, status, yes_weight, no_weight,
	start_time, end_time, timelock_end_time, expiry_time, deposit, snapshot_total, actions, actions_hash`

// Proposal returns the proposal with the given id.
func (t *Tx) Proposal(ctx context.Context, id uint64) (ir.Proposal, bool, error) {
	p, err := scanProposal(t.queryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Proposal{}, false, nil
	}
	if err != nil {
		return ir.Proposal{}, false, fmt.Errorf("read proposal %d: %w", id, err)
	}
	return p, true, nil
}

// PutProposal upserts a proposal.
func (t *Tx) PutProposal(ctx context.Context, p ir.Proposal) error {
	actions, err := marshalActions(p.Actions)
	if err != nil {
		return err
	}
	var snapshot sql.NullString
	if p.SnapshotTotal != nil {
		snapshot = sql.NullString{String: formatAmount(*p.SnapshotTotal), Valid: true}
	}
	times := make([]int64, 4)
	for i, v := range []uint64{p.StartTime, p.EndTime, p.TimelockEndTime, p.ExpiryTime} {
		if times[i], err = sqlTime(v); err != nil {
			return err
		}
	}

	err = t.exec(ctx, `
		INSERT INTO proposals (`+proposalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			yes_weight = excluded.yes_weight,
			no_weight = excluded.no_weight,
			timelock_end_time = excluded.timelock_end_time,
			snapshot_total = excluded.snapshot_total
	`,
		p.ID,
		string(p.Creator),
		p.Title,
		p.Description,
		string(p.Status),
		formatAmount(p.YesWeight),
		formatAmount(p.NoWeight),
		times[0], times[1], times[2], times[3],
		formatAmount(p.Deposit),
		snapshot,
		actions,
		p.ActionsHash,
	)
	if err != nil {
		return fmt.Errorf("write proposal %d: %w", p.ID, err)
	}
	return nil
}

// ProposalFilter selects proposals for listing.
type ProposalFilter struct {
	// Status restricts the listing when non-empty.
	Status ir.ProposalStatus
	// After is an exclusive id cursor.
	After uint64
	// Limit <= 0 means no limit.
	Limit int
}

// ListProposals returns proposals ordered by id.
func (t *Tx) ListProposals(ctx context.Context, f ProposalFilter) ([]ir.Proposal, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := t.query(ctx, `
		SELECT `+proposalColumns+` FROM proposals
		WHERE id > ? AND (? = '' OR status = ?)
		ORDER BY id ASC
		LIMIT ?
	`, f.After, string(f.Status), string(f.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []ir.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}

func scanProposal(row scanner) (ir.Proposal, error) {
	var (
		p                               ir.Proposal
		creator, status                 string
		yes, no, deposit, actions       string
		start, end, timelockEnd, expiry int64
		snapshot                        sql.NullString
	)
	err := row.Scan(&p.ID, &creator, &p.Title, &p.Description, &status, &yes, &no,
		&start, &end, &timelockEnd, &expiry, &deposit, &snapshot, &actions, &p.ActionsHash)
	if err != nil {
		return ir.Proposal{}, err
	}
	p.Creator = ir.Address(creator)
	p.Status = ir.ProposalStatus(status)
	p.StartTime, p.EndTime = uint64(start), uint64(end)
	p.TimelockEndTime, p.ExpiryTime = uint64(timelockEnd), uint64(expiry)
	if p.YesWeight, err = parseAmount(yes); err != nil {
		return ir.Proposal{}, err
	}
	if p.NoWeight, err = parseAmount(no); err != nil {
		return ir.Proposal{}, err
	}
	if p.Deposit, err = parseAmount(deposit); err != nil {
		return ir.Proposal{}, err
	}
	if snapshot.Valid {
		n, err := parseAmount(snapshot.String)
		if err != nil {
			return ir.Proposal{}, err
		}
		p.SnapshotTotal = &n
	}
	if p.Actions, err = unmarshalActions(actions); err != nil {
		return ir.Proposal{}, err
	}
	return p, nil
}

// Vote returns the vote cast by voter on a proposal.
func (t *Tx) Vote(ctx context.Context, proposalID uint64, voter ir.Address) (ir.VoteRecord, bool, error) {
	v, err := scanVote(t.queryRow(ctx, `
		SELECT proposal_id, voter, option, weight FROM votes
		WHERE proposal_id = ? AND voter = ?
	`, proposalID, string(voter)))
	if errors.Is(err, sql.ErrNoRows) {
		return ir.VoteRecord{}, false, nil
	}
	if err != nil {
		return ir.VoteRecord{}, false, fmt.Errorf("read vote: %w", err)
	}
	return v, true, nil
}

// PutVote records a vote. A second vote by the same voter on the same
// proposal violates the primary key.
func (t *Tx) PutVote(ctx context.Context, v ir.VoteRecord) error {
	err := t.exec(ctx, `
		INSERT INTO votes (proposal_id, voter, option, weight) VALUES (?, ?, ?, ?)
	`, v.ProposalID, string(v.Voter), string(v.Option), formatAmount(v.Weight))
	if err != nil {
		return fmt.Errorf("write vote: %w", err)
	}
	return nil
}

// ListVotes returns every vote on a proposal ordered by voter.
func (t *Tx) ListVotes(ctx context.Context, proposalID uint64) ([]ir.VoteRecord, error) {
	return t.votes(ctx, `
		SELECT proposal_id, voter, option, weight FROM votes
		WHERE proposal_id = ?
		ORDER BY voter COLLATE BINARY ASC
	`, proposalID)
}

// LockedVotes returns the voter's votes on proposals still in progress.
// These are the votes that lock the voter's shares.
func (t *Tx) LockedVotes(ctx context.Context, voter ir.Address) ([]ir.VoteRecord, error) {
	return t.votes(ctx, `
		SELECT v.proposal_id, v.voter, v.option, v.weight
		FROM votes v JOIN proposals p ON p.id = v.proposal_id
		WHERE v.voter = ? AND p.status = ?
		ORDER BY v.proposal_id ASC
	`, string(voter), string(ir.StatusInProgress))
}

func (t *Tx) votes(ctx context.Context, query string, args ...any) ([]ir.VoteRecord, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	votes := []ir.VoteRecord{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}

func scanVote(row scanner) (ir.VoteRecord, error) {
	var (
		v                     ir.VoteRecord
		voter, option, weight string
	)
	if err := row.Scan(&v.ProposalID, &voter, &option, &weight); err != nil {
		return ir.VoteRecord{}, err
	}
	v.Voter = ir.Address(voter)
	v.Option = ir.VoteOption(option)
	n, err := parseAmount(weight)
	if err != nil {
		return ir.VoteRecord{}, err
	}
	v.Weight = n
	return v, nil
}
