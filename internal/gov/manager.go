package gov

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/ledger"
	"github.com/roach88/stakegov/internal/store"
	"github.com/roach88/stakegov/internal/token"
)

// Dispatcher validates action lists at creation and submits them at
// execution.
type Dispatcher interface {
	Validate(actions []ir.Action) error
	Dispatch(ctx context.Context, p ir.Proposal) error
}

// Manager is the proposal state machine bound to one store transaction.
type Manager struct {
	tx         *store.Tx
	bank       *token.Bank
	ledger     *ledger.Ledger
	dispatcher Dispatcher
	cfg        ir.Config
}

// NewManager returns a Manager.
func NewManager(tx *store.Tx, bank *token.Bank, led *ledger.Ledger, d Dispatcher, cfg ir.Config) *Manager {
	return &Manager{tx: tx, bank: bank, ledger: led, dispatcher: d, cfg: cfg}
}

// Create opens a proposal. The deposit is moved from the creator's token
// balance into escrow until tally.
func (m *Manager) Create(ctx context.Context, env ir.Env, deposit uint64, actions []ir.Action, meta ir.Metadata) (uint64, error) {
	if deposit < m.cfg.MinDeposit {
		return 0, ir.Errorf(ir.CodeInsufficientDeposit,
			"deposit %d below minimum %d", deposit, m.cfg.MinDeposit)
	}
	if err := m.dispatcher.Validate(actions); err != nil {
		return 0, err
	}
	hash, err := ir.ActionsHash(actions)
	if err != nil {
		return 0, ir.Wrap(ir.CodeInvalidAction, err, "hash actions")
	}

	end, err := ir.AddTime(env.Now, m.cfg.VotingPeriod)
	if err != nil {
		return 0, err
	}
	expiry, err := ir.AddTime(end, m.cfg.ExecutionExpiryPeriod)
	if err != nil {
		return 0, err
	}

	st, err := m.tx.State(ctx)
	if err != nil {
		return 0, err
	}
	if st.ProposalCount, err = ir.Add(st.ProposalCount, 1); err != nil {
		return 0, err
	}

	if err := m.bank.Transfer(ctx, env.Sender, ir.EscrowAddress, m.cfg.StakingToken, deposit); err != nil {
		return 0, err
	}

	if actions == nil {
		actions = []ir.Action{}
	}
	p := ir.Proposal{
		ID:          st.ProposalCount,
		Creator:     env.Sender,
		Title:       meta.Title,
		Description: meta.Description,
		Status:      ir.StatusInProgress,
		StartTime:   env.Now,
		EndTime:     end,
		ExpiryTime:  expiry,
		Deposit:     deposit,
		Actions:     actions,
		ActionsHash: hash,
	}
	if err := m.tx.PutProposal(ctx, p); err != nil {
		return 0, err
	}
	return p.ID, m.tx.PutState(ctx, st)
}

// CastVote records a vote and locks weight shares of the voter until the
// proposal leaves InProgress. A second vote on the same proposal is
// rejected.
func (m *Manager) CastVote(ctx context.Context, env ir.Env, id uint64, option ir.VoteOption, weight uint64) error {
	p, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != ir.StatusInProgress {
		return ir.Errorf(ir.CodeProposalNotInProgress, "proposal %d is %s", id, p.Status)
	}
	if env.Now >= p.EndTime {
		return ir.Errorf(ir.CodeVotingClosed, "voting on proposal %d closed at %d", id, p.EndTime)
	}
	if !option.Valid() {
		return ir.Errorf(ir.CodeInvalidArgument, "vote option must be yes or no, got %q", option)
	}
	if weight == 0 {
		return ir.Errorf(ir.CodeZeroAmount, "vote weight must be positive")
	}
	if _, voted, err := m.tx.Vote(ctx, id, env.Sender); err != nil {
		return err
	} else if voted {
		return ir.Errorf(ir.CodeAlreadyVoted, "%s already voted on proposal %d", env.Sender, id)
	}

	unlocked, err := m.ledger.Unlocked(ctx, env.Sender)
	if err != nil {
		return err
	}
	if weight > unlocked {
		return ir.Errorf(ir.CodeInsufficientUnlockedShare,
			"%s has %d unlocked shares, voting %d", env.Sender, unlocked, weight)
	}

	switch option {
	case ir.VoteYes:
		p.YesWeight, err = ir.Add(p.YesWeight, weight)
	case ir.VoteNo:
		p.NoWeight, err = ir.Add(p.NoWeight, weight)
	}
	if err != nil {
		return err
	}

	vote := ir.VoteRecord{ProposalID: id, Voter: env.Sender, Option: option, Weight: weight}
	if err := m.tx.PutVote(ctx, vote); err != nil {
		return err
	}
	return m.tx.PutProposal(ctx, p)
}

// Tally decides a proposal once voting has ended. Locks held by its voters
// are released by the status change.
func (m *Manager) Tally(ctx context.Context, env ir.Env, id uint64) (ir.ProposalStatus, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Status != ir.StatusInProgress {
		return "", ir.Errorf(ir.CodeProposalNotInProgress, "proposal %d is %s", id, p.Status)
	}
	if env.Now < p.EndTime {
		return "", ir.Errorf(ir.CodeVotingNotEnded, "voting on proposal %d ends at %d", id, p.EndTime)
	}

	passed, err := m.decide(ctx, p)
	if err != nil {
		return "", err
	}

	if passed {
		p.Status = ir.StatusPassed
		if p.TimelockEndTime, err = ir.AddTime(p.EndTime, m.cfg.TimelockPeriod); err != nil {
			return "", err
		}
		if err := m.bank.Transfer(ctx, ir.EscrowAddress, p.Creator, m.cfg.StakingToken, p.Deposit); err != nil {
			return "", err
		}
	} else {
		p.Status = ir.StatusRejected
		if err := m.ledger.CreditExternal(ctx, ir.EscrowAddress, p.Deposit); err != nil {
			return "", err
		}
	}
	return p.Status, m.tx.PutProposal(ctx, p)
}

// decide applies quorum and threshold exactly:
// votes >= quorum*denominator and yes >= threshold*votes.
func (m *Manager) decide(ctx context.Context, p ir.Proposal) (bool, error) {
	var denominator uint64
	if p.SnapshotTotal != nil {
		denominator = *p.SnapshotTotal
	} else {
		totals, err := m.ledger.Totals(ctx)
		if err != nil {
			return false, err
		}
		denominator = totals.TotalShare
	}
	if denominator == 0 {
		return false, nil
	}

	votes, err := ir.Add(p.YesWeight, p.NoWeight)
	if err != nil {
		return false, err
	}
	if !ir.MeetsFraction(votes, denominator, m.cfg.Quorum) {
		return false, nil
	}
	if votes == 0 {
		return m.cfg.Threshold.IsZero(), nil
	}
	return ir.MeetsFraction(p.YesWeight, votes, m.cfg.Threshold), nil
}

// Execute submits a passed proposal's actions once the timelock has
// elapsed and before expiry. On dispatch failure the error is returned and
// the proposal is left Passed.
func (m *Manager) Execute(ctx context.Context, env ir.Env, id uint64) error {
	p, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != ir.StatusPassed {
		return ir.Errorf(ir.CodeProposalNotPassed, "proposal %d is %s", id, p.Status)
	}
	if env.Now < p.TimelockEndTime {
		return ir.Errorf(ir.CodeTimelockNotElapsed, "proposal %d is timelocked until %d", id, p.TimelockEndTime)
	}
	if env.Now > p.ExpiryTime {
		return ir.Errorf(ir.CodeProposalExpired, "proposal %d expired at %d", id, p.ExpiryTime)
	}

	if err := m.dispatcher.Dispatch(ctx, p); err != nil {
		return err
	}
	p.Status = ir.StatusExecuted
	return m.tx.PutProposal(ctx, p)
}

// Expire closes a passed proposal whose execution window has lapsed.
func (m *Manager) Expire(ctx context.Context, env ir.Env, id uint64) error {
	p, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != ir.StatusPassed {
		return ir.Errorf(ir.CodeProposalNotPassed, "proposal %d is %s", id, p.Status)
	}
	if env.Now <= p.ExpiryTime {
		return ir.Errorf(ir.CodeProposalNotExpired, "proposal %d is executable until %d", id, p.ExpiryTime)
	}
	p.Status = ir.StatusExpired
	return m.tx.PutProposal(ctx, p)
}

// Get returns a proposal or NOT_FOUND.
func (m *Manager) Get(ctx context.Context, id uint64) (ir.Proposal, error) {
	p, found, err := m.tx.Proposal(ctx, id)
	if err != nil {
		return ir.Proposal{}, err
	}
	if !found {
		return ir.Proposal{}, ir.Errorf(ir.CodeNotFound, "proposal %d not found", id)
	}
	return p, nil
}

// List returns proposals matching the filter.
func (m *Manager) List(ctx context.Context, f store.ProposalFilter) ([]ir.Proposal, error) {
	return m.tx.ListProposals(ctx, f)
}

// Votes returns every vote cast on a proposal.
func (m *Manager) Votes(ctx context.Context, id uint64) ([]ir.VoteRecord, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.tx.ListVotes(ctx, id)
}
