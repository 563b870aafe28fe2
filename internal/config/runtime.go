package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Runtime holds settings of the stakegov process itself. None of them
// affect ledger semantics.
type Runtime struct {
	// Database is the SQLite file holding all state.
	Database string `envconfig:"DB"`
	// ConfigFile is read by init when no --config flag is given.
	ConfigFile string `envconfig:"CONFIG"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	Format     string `envconfig:"FORMAT"`
	// MetricsFile receives a Prometheus textfile after every command.
	MetricsFile     string `envconfig:"METRICS_FILE"`
	InvariantChecks bool   `envconfig:"INVARIANT_CHECKS"`
}

// DefaultRuntime is used for anything the environment leaves unset.
var DefaultRuntime = Runtime{
	Database:        "stakegov.db",
	LogLevel:        "info",
	Format:          "text",
	InvariantChecks: true,
}

// LoadRuntime overlays STAKEGOV_* environment variables onto the defaults.
func LoadRuntime() (Runtime, error) {
	rt := DefaultRuntime
	if err := envconfig.Process("stakegov", &rt); err != nil {
		return Runtime{}, fmt.Errorf("error processing environment: %w", err)
	}
	if _, err := rt.Level(); err != nil {
		return Runtime{}, err
	}
	return rt, nil
}

// Level parses LogLevel.
func (r Runtime) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(r.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", r.LogLevel)
	}
	return level, nil
}
