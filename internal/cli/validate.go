package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/config"
	"github.com/roach88/stakegov/internal/ir"
)

// ValidationError is one problem found in a config file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Config *ir.Config        `json:"config,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error codes reported by validate besides rejection codes.
const (
	ErrCodeSchema = "E_SCHEMA"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Check a governance config file without touching a database",
		Long: `Check a CUE or JSON governance config against the schema and the
parameter bounds, and print the resolved config with defaults filled in.

Exit codes:
  0 - config is valid
  1 - config is invalid
  2 - file could not be read`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts)

	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "cannot read config", err)
	}
	formatter.VerboseLog("validating %s", path)

	cfg, err := config.LoadFile(path)
	if err == nil {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg},
			fmt.Sprintf("✓ %s is valid (admin %s, voting period %d)", path, cfg.Admin, cfg.VotingPeriod))
	}

	verr := toValidationError(err)
	if formatter.Format == "json" {
		if outErr := formatter.Success(ValidationResult{Valid: false, Errors: []ValidationError{verr}}, ""); outErr != nil {
			return outErr
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", path)
		if verr.Line > 0 {
			fmt.Fprintf(formatter.Writer, "  line %d, column %d: [%s] %s\n", verr.Line, verr.Column, verr.Code, verr.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", verr.Code, verr.Message)
		}
	}
	return WrapExitError(ExitFailure, "invalid config", err)
}

func toValidationError(err error) ValidationError {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ValidationError{Code: ErrCodeSchema, Message: cfgErr.Message, Line: cfgErr.Line, Column: cfgErr.Column}
	}
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		return ValidationError{Code: string(irErr.Code), Message: irErr.Message}
	}
	return ValidationError{Code: ErrCodeSchema, Message: err.Error()}
}
