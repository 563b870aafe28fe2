package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

func TestQueryUninitialized(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	_, _, err := execute(t, "", "--db", db, "query", "state")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueryNotFound(t *testing.T) {
	db := newDB(t)

	out, _, err := execute(t, "", "--db", db, "--format", "json", "query", "proposal", "9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ir.CodeNotFound, ir.CodeOf(err))
	assert.Contains(t, out, `"code":"NOT_FOUND"`)
}

func TestQueryBadID(t *testing.T) {
	db := newDB(t)

	for _, arg := range []string{"zero", "0", "1.5"} {
		_, _, err := execute(t, "", "--db", db, "query", "schedule", arg)
		require.Error(t, err, arg)
		assert.Equal(t, ir.CodeInvalidArgument, ir.CodeOf(err), arg)
	}
}

func TestQueryProposalsByStatus(t *testing.T) {
	db := newDB(t)
	mustExecute(t, "--db", db, "mint", "--sender", "admin", "--to", "carol", "--amount", "300")
	mustExecute(t, "--db", db, "mint", "--sender", "admin", "--to", "alice", "--amount", "10")
	mustExecute(t, "--db", db, "stake", "--sender", "alice", "--amount", "10")
	for i := 0; i < 3; i++ {
		mustExecute(t, "--db", db, "propose", "--sender", "carol", "--deposit", "100")
	}
	// Nobody voted, so the first proposal fails quorum.
	mustExecute(t, "--db", db, "tally", "--sender", "carol", "--proposal-id", "1", "--now", "100")

	var open []ir.Proposal
	decodeData(t, mustExecute(t, "--db", db, "--format", "json",
		"query", "proposals", "--status", "in_progress"), &open)
	require.Len(t, open, 2)
	assert.Equal(t, uint64(2), open[0].ID)
	assert.Equal(t, uint64(3), open[1].ID)

	var page []ir.Proposal
	decodeData(t, mustExecute(t, "--db", db, "--format", "json",
		"query", "proposals", "--after", "1", "--limit", "1"), &page)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(2), page[0].ID)

	var rejected []ir.Proposal
	decodeData(t, mustExecute(t, "--db", db, "--format", "json",
		"query", "proposals", "--status", "rejected"), &rejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, ir.StatusRejected, rejected[0].Status)
}

func TestQueryAccountsAndSchedules(t *testing.T) {
	db := newDB(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		mustExecute(t, "--db", db, "mint", "--sender", "admin", "--to", name, "--amount", "10")
		mustExecute(t, "--db", db, "stake", "--sender", name, "--amount", "10")
	}

	var accts []ir.Account
	decodeData(t, mustExecute(t, "--db", db, "--format", "json", "query", "accounts", "--after", "alice"), &accts)
	require.Len(t, accts, 2)
	assert.Equal(t, ir.Address("bob"), accts[0].Address)
	assert.Equal(t, ir.Address("carol"), accts[1].Address)

	var schedules []ir.RewardSchedule
	decodeData(t, mustExecute(t, "--db", db, "--format", "json", "query", "schedules"), &schedules)
	assert.Empty(t, schedules)

	out := mustExecute(t, "--db", db, "--format", "json", "query", "invariants")
	assert.Contains(t, out, `"ok":true`)
}

func TestQueryTextOutputIsJSON(t *testing.T) {
	db := newDB(t)

	out := mustExecute(t, "--db", db, "query", "config")
	assert.Contains(t, out, `"admin": "admin"`)
	assert.Contains(t, out, `"staking_token": "ustake"`)
}
