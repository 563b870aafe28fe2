package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTestCommandPasses(t *testing.T) {
	out := mustExecute(t, "test", scenariosDir, "--golden", goldenDir)
	assert.Contains(t, out, "✓ stake-and-unstake")
	assert.Contains(t, out, "✓ reward-stream")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
}

func TestTestCommandFilterJSON(t *testing.T) {
	var res TestResult
	decodeData(t, mustExecute(t, "--format", "json", "test", scenariosDir, "--filter", "stake-*"), &res)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "stake-and-unstake", res.Scenarios[0].Name)
	assert.True(t, res.Scenarios[0].Pass)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong
description: "expects a rejection that does not happen"
setup:
  - op: mint
    sender: admin
    args: { to: alice, amount: 10 }
flow:
  - op: stake
    sender: alice
    args: { amount: 10 }
    expect:
      case: INSUFFICIENT_FUNDS
assertions:
  - type: invariants
`), 0644))

	out, _, err := execute(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "stake-and-unstake.golden"), []byte(`{}`), 0644))

	out, _, err := execute(t, "", "test", scenariosDir, "--filter", "stake-*", "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match")
}

func TestTestCommandUpdate(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	mustExecute(t, "test", scenariosDir, "--filter", "stake-*", "--golden", golden, "--update")

	got, err := os.ReadFile(filepath.Join(golden, "stake-and-unstake.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "stake-and-unstake.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	mustExecute(t, "test", scenariosDir, "--filter", "stake-*", "--golden", golden)
}

func TestTestCommandErrors(t *testing.T) {
	_, _, err := execute(t, "", "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "", "test", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out := mustExecute(t, "test", t.TempDir())
	assert.Equal(t, "No scenarios found.\n", out)
}
