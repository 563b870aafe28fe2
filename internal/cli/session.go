package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/stakegov/internal/config"
	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/metrics"
	"github.com/roach88/stakegov/internal/store"
)

// newLogger builds the process logger. Logs go to w so they never mix
// with command output.
func newLogger(w io.Writer, opts *RootOptions) (*slog.Logger, error) {
	level, err := config.Runtime{LogLevel: opts.LogLevel}.Level()
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

// log returns the configured logger, or the default one when the
// command ran without the root pre-run.
func (o *RootOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// session is an open database with an engine on top.
type session struct {
	opts     *RootOptions
	store    *store.Store
	engine   *engine.Engine
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func openSession(opts *RootOptions, extra ...engine.Option) (*session, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no database: set --db or STAKEGOV_DB")
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	engineOpts := []engine.Option{
		engine.WithLogger(opts.log()),
		engine.WithMetrics(m),
		engine.WithInvariantChecks(opts.InvariantChecks),
	}
	return &session{
		opts:     opts,
		store:    st,
		engine:   engine.New(st, append(engineOpts, extra...)...),
		metrics:  m,
		registry: registry,
	}, nil
}

// Close writes the metrics textfile, if one was requested, and closes the
// database.
func (s *session) Close() error {
	var metricsErr error
	if s.opts.MetricsFile != "" {
		if st, err := s.engine.State(context.Background()); err == nil {
			s.metrics.ObserveState(st)
		}
		if err := metrics.WriteTextfile(s.opts.MetricsFile, s.registry); err != nil {
			metricsErr = fmt.Errorf("write metrics: %w", err)
		}
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	return metricsErr
}
