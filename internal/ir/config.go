package ir

import (
	"github.com/shopspring/decimal"
)

// Config holds the governance parameters. It is written once at genesis.
//
// All periods are in logical time units.
type Config struct {
	// Admin may instantiate reward schedules, allocate and deallocate
	// rewards, and mint tokens on local setups.
	Admin        Address `json:"admin"`
	StakingToken string  `json:"staking_token"`

	MinDeposit            uint64 `json:"min_deposit"`
	VotingPeriod          uint64 `json:"voting_period"`
	TimelockPeriod        uint64 `json:"timelock_period"`
	ExecutionExpiryPeriod uint64 `json:"execution_expiry_period"`
	SnapshotWindow        uint64 `json:"snapshot_window"`

	// Quorum is the fraction of eligible weight that must vote.
	Quorum decimal.Decimal `json:"quorum"`
	// Threshold is the fraction of cast weight that must vote yes.
	Threshold decimal.Decimal `json:"threshold"`

	// MaxActiveSchedules caps the number of unfinished reward schedules,
	// which bounds the work of every share-changing operation.
	MaxActiveSchedules int `json:"max_active_schedules"`
	// MaxUpdateBatch caps how many schedules one sweep advances.
	MaxUpdateBatch int `json:"max_update_batch"`
}

// DefaultConfig returns a configuration suitable for local use.
func DefaultConfig() Config {
	return Config{
		Admin:                 "admin",
		StakingToken:          "ustake",
		MinDeposit:            100,
		VotingPeriod:          100,
		TimelockPeriod:        10,
		ExecutionExpiryPeriod: 50,
		SnapshotWindow:        10,
		Quorum:                decimal.RequireFromString("0.4"),
		Threshold:             decimal.RequireFromString("0.5"),
		MaxActiveSchedules:    16,
		MaxUpdateBatch:        4,
	}
}

var (
	decZero = decimal.Zero
	decOne  = decimal.NewFromInt(1)
)

// Validate checks every bound. Violations are INVALID_CONFIG_BOUND.
func (c Config) Validate() error {
	if c.Admin == "" || c.Admin.IsModule() {
		return Errorf(CodeInvalidConfigBound, "admin must be a non-module address")
	}
	if c.StakingToken == "" {
		return Errorf(CodeInvalidConfigBound, "staking_token is required")
	}
	if c.Quorum.LessThan(decZero) || c.Quorum.GreaterThan(decOne) {
		return Errorf(CodeInvalidConfigBound, "quorum %s outside [0,1]", c.Quorum)
	}
	if c.Threshold.LessThan(decZero) || c.Threshold.GreaterThan(decOne) {
		return Errorf(CodeInvalidConfigBound, "threshold %s outside [0,1]", c.Threshold)
	}
	if c.VotingPeriod == 0 {
		return Errorf(CodeInvalidConfigBound, "voting_period must be positive")
	}
	if c.SnapshotWindow > c.VotingPeriod {
		return Errorf(CodeInvalidConfigBound,
			"snapshot_window %d exceeds voting_period %d", c.SnapshotWindow, c.VotingPeriod)
	}
	if c.ExecutionExpiryPeriod < c.TimelockPeriod {
		return Errorf(CodeInvalidConfigBound,
			"execution_expiry_period %d shorter than timelock_period %d",
			c.ExecutionExpiryPeriod, c.TimelockPeriod)
	}
	if c.MaxActiveSchedules <= 0 || c.MaxUpdateBatch <= 0 {
		return Errorf(CodeInvalidConfigBound, "schedule limits must be positive")
	}
	return nil
}
