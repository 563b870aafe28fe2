package ir

import (
	"github.com/shopspring/decimal"
)

// Address identifies an account holder or a module account.
type Address string

// Module accounts. They hold tokens on behalf of the core and are never
// valid senders for user operations.
const (
	// PoolAddress holds every staked token plus absorbed inflows.
	PoolAddress Address = "stakegov/pool"
	// EscrowAddress holds proposal deposits until tally.
	EscrowAddress Address = "stakegov/escrow"
	// RewardsAddress holds funded reward streams until claimed.
	RewardsAddress Address = "stakegov/rewards"
)

// IsModule reports whether the address is one of the module accounts.
func (a Address) IsModule() bool {
	return a == PoolAddress || a == EscrowAddress || a == RewardsAddress
}

// Env carries the caller identity and logical time for one invocation.
// Now is supplied by the host and must never decrease between invocations.
type Env struct {
	Sender Address `json:"sender"`
	Now    uint64  `json:"now"`
}

// Ledger is the pooled share ledger.
//
// INVARIANT: TotalBalance only grows through deposits and absorbed inflows
// and only shrinks through withdrawals; TotalShare only changes through
// stake and unstake.
type Ledger struct {
	TotalShare   uint64 `json:"total_share"`
	TotalBalance uint64 `json:"total_balance"`
}

// State is the process-wide singleton: ledger totals plus counters.
type State struct {
	Ledger
	ProposalCount uint64 `json:"proposal_count"`
	ScheduleCount uint64 `json:"schedule_count"`
	// LastTime is the Now of the last committed invocation.
	LastTime uint64 `json:"last_time"`
	// InvocationSeq counts committed invocations.
	InvocationSeq int64 `json:"invocation_seq"`
	// RetiredCount is the retirement sequence number of the last schedule
	// taken off the maintenance queue.
	RetiredCount uint64 `json:"retired_count"`
}

// VoteOption is the side of a vote.
type VoteOption string

const (
	VoteYes VoteOption = "yes"
	VoteNo  VoteOption = "no"
)

// Valid reports whether the option is yes or no.
func (o VoteOption) Valid() bool {
	return o == VoteYes || o == VoteNo
}

// VoteRecord is a cast vote. Weight is the number of shares locked at cast
// time and stays fixed for the life of the proposal.
type VoteRecord struct {
	ProposalID uint64     `json:"proposal_id"`
	Voter      Address    `json:"voter"`
	Option     VoteOption `json:"option"`
	Weight     uint64     `json:"weight"`
}

// Account is a share holder.
//
// Locked holds the account's votes on proposals that are still in
// progress. Leaving InProgress releases the lock.
type Account struct {
	Address Address      `json:"address"`
	Share   uint64       `json:"share"`
	Locked  []VoteRecord `json:"locked"`
	// RewardsSettledAt is the logical time of the last settlement that left
	// no retired schedules unsettled for this account.
	RewardsSettledAt uint64 `json:"rewards_settled_at"`
	// RetiredCursor is the highest retirement sequence number this account
	// has been settled against.
	RetiredCursor uint64 `json:"retired_cursor"`
}

// LockedShares sums the weights of all locked votes.
func (a Account) LockedShares() (uint64, error) {
	var total uint64
	for _, v := range a.Locked {
		next, err := Add(total, v.Weight)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

// ProposalStatus is a node of the proposal state machine.
type ProposalStatus string

const (
	StatusInProgress ProposalStatus = "in_progress"
	StatusPassed     ProposalStatus = "passed"
	StatusRejected   ProposalStatus = "rejected"
	StatusExecuted   ProposalStatus = "executed"
	StatusExpired    ProposalStatus = "expired"
)

// Terminal reports whether no further transition is possible.
func (s ProposalStatus) Terminal() bool {
	return s == StatusRejected || s == StatusExecuted || s == StatusExpired
}

// Proposal is a time-boxed governance decision.
type Proposal struct {
	ID          uint64         `json:"id"`
	Creator     Address        `json:"creator"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      ProposalStatus `json:"status"`
	YesWeight   uint64         `json:"yes_weight"`
	NoWeight    uint64         `json:"no_weight"`
	StartTime   uint64         `json:"start_time"`
	EndTime     uint64         `json:"end_time"`
	// TimelockEndTime is zero until the proposal passes.
	TimelockEndTime uint64   `json:"timelock_end_time"`
	ExpiryTime      uint64   `json:"expiry_time"`
	Deposit         uint64   `json:"deposit"`
	SnapshotTotal   *uint64  `json:"snapshot_total,omitempty"`
	Actions         []Action `json:"actions"`
	ActionsHash     string   `json:"actions_hash"`
}

// Metadata is the descriptive part of a new proposal.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RewardSchedule is a time-bounded linear reward stream.
//
// Parameters are immutable after creation; Accumulator (reward per share)
// and LastUpdateTime move forward on every update.
type RewardSchedule struct {
	ID             uint64          `json:"id"`
	Funder         Address         `json:"funder"`
	StartTime      uint64          `json:"start_time"`
	Duration       uint64          `json:"duration"`
	RewardToken    string          `json:"reward_token"`
	Rate           uint64          `json:"rate"`
	Accumulator    decimal.Decimal `json:"accumulator"`
	LastUpdateTime uint64          `json:"last_update_time"`
	CreatedAt      uint64          `json:"created_at"`
	// RetiredSeq is zero while the schedule is queued and its position in
	// retirement order afterwards.
	RetiredSeq uint64 `json:"retired_seq"`
}

// End is the time after which the accumulator is frozen.
func (s RewardSchedule) End() uint64 {
	return s.StartTime + s.Duration
}

// Retired reports whether the schedule has left the maintenance queue.
func (s RewardSchedule) Retired() bool {
	return s.RetiredSeq != 0
}

// Finished reports whether the accumulator has been advanced to End.
func (s RewardSchedule) Finished() bool {
	return s.LastUpdateTime >= s.End()
}

// RewardCheckpoint is an account's position in one schedule.
type RewardCheckpoint struct {
	ScheduleID       uint64          `json:"schedule_id"`
	Account          Address         `json:"account"`
	AccumulatorPaid  decimal.Decimal `json:"accumulator_paid"`
	AccruedUnclaimed uint64          `json:"accrued_unclaimed"`
}

// Payout is a single token transfer made by claim or unstake.
type Payout struct {
	ScheduleID uint64  `json:"schedule_id,omitempty"`
	Denom      string  `json:"denom"`
	To         Address `json:"to"`
	Amount     uint64  `json:"amount"`
}
