package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestValidateValid(t *testing.T) {
	path := filepath.Join("..", "config", "testdata", "governance.cue")

	out := mustExecute(t, "validate", path)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "admin gov-admin, voting period 600")

	var res ValidationResult
	decodeData(t, mustExecute(t, "--format", "json", "validate", path), &res)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Config)
	assert.Equal(t, 8, res.Config.MaxActiveSchedules)
}

func TestValidateJSONConfig(t *testing.T) {
	path := filepath.Join("..", "config", "testdata", "governance.json")

	var res ValidationResult
	decodeData(t, mustExecute(t, "--format", "json", "validate", path), &res)
	assert.True(t, res.Valid)
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		code     string
		withLine bool
	}{
		{"syntax", "admin: \"a\"\nvoting_period: {\n", ErrCodeSchema, true},
		{"unknown field", `admin: "a", quorum_bps: 10`, ErrCodeSchema, false},
		{"quorum above one", `admin: "a", quorum: 1.5`, "INVALID_CONFIG_BOUND", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.src)

			out, _, err := execute(t, "", "--format", "json", "validate", path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var res ValidationResult
			decodeData(t, out, &res)
			assert.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.code, res.Errors[0].Code)
			if tt.withLine {
				assert.Positive(t, res.Errors[0].Line)
			}
		})
	}
}

func TestValidateText(t *testing.T) {
	path := writeConfig(t, `admin: "a", quorum: 1.5`)

	out, _, err := execute(t, "", "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, "[INVALID_CONFIG_BOUND]")
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := execute(t, "", "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
