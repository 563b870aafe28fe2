// Package dispatch hands a passed proposal's action list to the external
// executor as one unit.
//
// The core never runs actions itself. A Submitter receives the ordered
// list and either accepts all of it or fails; the Dispatcher maps any
// failure to EXECUTION_FAILED so the whole invocation rolls back and the
// proposal stays Passed.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/roach88/stakegov/internal/ir"
)

// Submitter is the external action-dispatch capability.
type Submitter interface {
	Submit(ctx context.Context, proposalID uint64, actions []ir.Action) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, proposalID uint64, actions []ir.Action) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, proposalID uint64, actions []ir.Action) error {
	return f(ctx, proposalID, actions)
}

// Dispatcher validates and submits action lists.
type Dispatcher struct {
	registry  *Registry
	submitter Submitter
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New returns a dispatcher that submits to s.
func New(registry *Registry, s Submitter, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, submitter: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate checks actions against the registry.
func (d *Dispatcher) Validate(actions []ir.Action) error {
	return d.registry.Validate(actions)
}

// Dispatch submits the proposal's actions. Any failure, including a
// validation failure, is returned as EXECUTION_FAILED.
func (d *Dispatcher) Dispatch(ctx context.Context, p ir.Proposal) error {
	if err := d.registry.Validate(p.Actions); err != nil {
		return ir.Wrap(ir.CodeExecutionFailed, err, "proposal "+itoa(p.ID)+" carries invalid actions")
	}
	if d.submitter == nil {
		return ir.Wrap(ir.CodeExecutionFailed, errors.New("no submitter configured"), "dispatch proposal "+itoa(p.ID))
	}

	if err := d.submitter.Submit(ctx, p.ID, p.Actions); err != nil {
		d.logger.Warn("action dispatch failed",
			"proposal_id", p.ID,
			"actions", len(p.Actions),
			"error", err,
		)
		return ir.Wrap(ir.CodeExecutionFailed, err, "dispatch proposal "+itoa(p.ID))
	}

	d.logger.Info("actions dispatched",
		"proposal_id", p.ID,
		"actions", len(p.Actions),
		"actions_hash", p.ActionsHash,
	)
	return nil
}

func itoa[T int | uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}
