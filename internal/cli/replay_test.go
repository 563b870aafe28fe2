package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/store"
)

func replayDB(t *testing.T) string {
	t.Helper()
	db := newDB(t)
	mustExecute(t, "--db", db, "mint", "--sender", "admin", "--to", "alice", "--amount", "100")
	mustExecute(t, "--db", db, "mint", "--sender", "admin", "--to", "carol", "--amount", "100")
	mustExecute(t, "--db", db, "stake", "--sender", "alice", "--amount", "100", "--now", "2")
	mustExecute(t, "--db", db, "propose", "--sender", "carol", "--deposit", "100", "--now", "3")
	mustExecute(t, "--db", db, "vote", "--sender", "alice", "--proposal-id", "1",
		"--option", "no", "--weight", "100", "--now", "4")
	mustExecute(t, "--db", db, "tally", "--sender", "carol", "--proposal-id", "1", "--now", "103")
	return db
}

func TestReplayClean(t *testing.T) {
	db := replayDB(t)

	out := mustExecute(t, "--db", db, "replay")
	assert.Equal(t, "✓ replayed 6 record(s), no divergence\n", out)

	var report engine.ReplayReport
	decodeData(t, mustExecute(t, "--db", db, "--format", "json", "replay", "--limit", "3"), &report)
	assert.Equal(t, 3, report.Applied)
	assert.Empty(t, report.Mismatches)
}

func TestReplayDetectsTampering(t *testing.T) {
	db := replayDB(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE invocations SET result = '{"minted_shares":99}' WHERE seq = 3`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "", "--db", db, "--format", "json", "replay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_REPLAY_DIVERGED")
	assert.Contains(t, out, `"field":"result"`)
}

func TestReplayRejection(t *testing.T) {
	db := replayDB(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE invocations SET args = '{"amount":500}' WHERE seq = 3`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "", "--db", db, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_REPLAY_REJECTED]")
	assert.Contains(t, out, "replay seq 3 (stake)")
}
