package config

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

func TestLoadCUEFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "governance.cue"))
	require.NoError(t, err)

	assert.Equal(t, ir.Address("gov-admin"), cfg.Admin)
	assert.Equal(t, uint64(250), cfg.MinDeposit)
	assert.Equal(t, uint64(600), cfg.VotingPeriod)
	assert.Equal(t, uint64(60), cfg.SnapshotWindow)
	assert.Equal(t, uint64(120), cfg.TimelockPeriod)
	assert.Equal(t, uint64(300), cfg.ExecutionExpiryPeriod)
	assert.True(t, cfg.Quorum.Equal(decimal.RequireFromString("0.334")))
	assert.True(t, cfg.Threshold.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, 8, cfg.MaxActiveSchedules)
	assert.Equal(t, 4, cfg.MaxUpdateBatch, "schema default")
}

func TestLoadJSONFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "governance.json"))
	require.NoError(t, err)
	assert.Equal(t, uint64(50), cfg.VotingPeriod)
	assert.Equal(t, "ustake", cfg.StakingToken)
	assert.True(t, cfg.Quorum.Equal(decimal.RequireFromString("0.4")))
}

func TestDefaultMatchesIR(t *testing.T) {
	cfg, err := Default("admin")
	require.NoError(t, err)

	want := ir.DefaultConfig()
	assert.True(t, want.Quorum.Equal(cfg.Quorum))
	assert.True(t, want.Threshold.Equal(cfg.Threshold))
	cfg.Quorum, cfg.Threshold = want.Quorum, want.Threshold
	assert.Equal(t, want, cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ir.Code
	}{
		{name: "missing admin", src: `voting_period: 10`},
		{name: "unknown field", src: `admin: "a", quorum_bps: 10`},
		{name: "negative deposit", src: `admin: "a", min_deposit: -1`},
		{name: "float period", src: `admin: "a", voting_period: 1.5`},
		{name: "zero voting period", src: `admin: "a", voting_period: 0`},
		{name: "syntax", src: `admin: {`},
		{name: "quorum above one", src: `admin: "a", quorum: 1.01`, code: ir.CodeInvalidConfigBound},
		{name: "window longer than period", src: `admin: "a", voting_period: 5, snapshot_window: 6`, code: ir.CodeInvalidConfigBound},
		{name: "expiry shorter than timelock", src: `admin: "a", timelock_period: 60, execution_expiry_period: 50`, code: ir.CodeInvalidConfigBound},
		{name: "module admin", src: `admin: "stakegov/pool"`, code: ir.CodeInvalidConfigBound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.cue", []byte(tt.src))
			require.Error(t, err)
			if tt.code != "" {
				assert.Equal(t, tt.code, ir.CodeOf(err))
				return
			}
			var cerr *Error
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Parse("gov.cue", []byte("admin: \"a\"\nvoting_period: \"soon\"\n"))
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "gov.cue", cerr.Path)
	assert.Contains(t, cerr.Error(), "gov.cue:")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestLoadRuntime(t *testing.T) {
	t.Setenv("STAKEGOV_DB", "/var/lib/stakegov/state.db")
	t.Setenv("STAKEGOV_LOG_LEVEL", "debug")
	t.Setenv("STAKEGOV_INVARIANT_CHECKS", "false")

	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/stakegov/state.db", rt.Database)
	assert.Equal(t, "text", rt.Format)
	assert.False(t, rt.InvariantChecks)

	level, err := rt.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())
}

func TestLoadRuntimeRejectsBadLevel(t *testing.T) {
	t.Setenv("STAKEGOV_LOG_LEVEL", "chatty")
	_, err := LoadRuntime()
	assert.Error(t, err)
}
