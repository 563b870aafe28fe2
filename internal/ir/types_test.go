package ir

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleAddresses(t *testing.T) {
	for _, a := range []Address{PoolAddress, EscrowAddress, RewardsAddress} {
		assert.True(t, a.IsModule(), a)
	}
	assert.False(t, Address("alice").IsModule())
}

func TestLockedShares(t *testing.T) {
	acct := Account{Locked: []VoteRecord{{ProposalID: 1, Weight: 3}, {ProposalID: 2, Weight: 4}}}
	n, err := acct.LockedShares()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}

func TestProposalStatusTerminal(t *testing.T) {
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusPassed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusExecuted.Terminal())
	assert.True(t, StatusExpired.Terminal())
}

func TestScheduleEnd(t *testing.T) {
	s := RewardSchedule{StartTime: 10, Duration: 5, LastUpdateTime: 14}
	assert.Equal(t, uint64(15), s.End())
	assert.False(t, s.Finished())
	s.LastUpdateTime = 15
	assert.True(t, s.Finished())
}

func TestScheduleJSONUsesSnakeCase(t *testing.T) {
	s := RewardSchedule{ID: 1, Rate: 2, Accumulator: decimal.RequireFromString("0.5")}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "last_update_time")
	assert.Contains(t, m, "reward_token")
	assert.Equal(t, "0.5", m["accumulator"])
}
