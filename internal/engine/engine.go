package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/stakegov/internal/dispatch"
	"github.com/roach88/stakegov/internal/gov"
	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/ledger"
	"github.com/roach88/stakegov/internal/metrics"
	"github.com/roach88/stakegov/internal/rewards"
	"github.com/roach88/stakegov/internal/store"
	"github.com/roach88/stakegov/internal/token"
)

// IDGenerator assigns ids to committed invocations.
type IDGenerator interface {
	Generate() string
}

// Engine applies invocations to a store, one at a time.
//
// Every invocation runs in its own store transaction. The share ledger,
// proposal manager and reward engine are rebuilt on that transaction for
// each call, so a rejection at any point leaves no trace.
//
// Apply is safe for concurrent use; calls are serialized. Run and Submit
// offer the same serialization through a FIFO queue drained by a single
// goroutine.
type Engine struct {
	store     *store.Store
	ids       IDGenerator
	registry  *dispatch.Registry
	submitter dispatch.Submitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
	checks    bool

	mu    sync.Mutex
	queue *requestQueue
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the UUIDv7 invocation id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRegistry replaces the default action registry.
func WithRegistry(r *dispatch.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSubmitter sends executed actions to s instead of the store outbox.
func WithSubmitter(s dispatch.Submitter) Option {
	return func(e *Engine) {
		e.submitter = s
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records invocation outcomes and ledger gauges in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithInvariantChecks verifies the ledger invariants before every commit.
// A violation halts the process.
func WithInvariantChecks(enabled bool) Option {
	return func(e *Engine) {
		e.checks = enabled
	}
}

// New returns an Engine over s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		ids:      UUIDv7Generator{},
		registry: dispatch.DefaultRegistry(),
		logger:   slog.Default(),
		queue:    newRequestQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init writes genesis with cfg. It fails if cfg is out of bounds or the
// store is already initialized.
func (e *Engine) Init(ctx context.Context, cfg ir.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		ok, err := tx.Initialized(ctx)
		if err != nil {
			return err
		}
		if ok {
			return ir.Errorf(ir.CodeInvalidArgument, "store is already initialized")
		}
		return tx.Genesis(ctx, cfg)
	})
	if err != nil {
		return err
	}
	e.logger.Info("genesis written",
		"admin", cfg.Admin,
		"staking_token", cfg.StakingToken,
		"voting_period", cfg.VotingPeriod,
		"quorum", cfg.Quorum.String(),
		"threshold", cfg.Threshold.String(),
	)
	return nil
}

// Result is the outcome of a committed invocation.
type Result struct {
	Seq    int64       `json:"seq"`
	ID     string      `json:"id"`
	Op     ir.Op       `json:"op"`
	Digest string      `json:"digest"`
	Output ir.IRObject `json:"output"`
}

// Apply runs one invocation to completion. On error nothing is written.
// Rejections are *ir.Error values.
func (e *Engine) Apply(ctx context.Context, inv ir.Invocation) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("applying invocation", "op", inv.Op, "sender", inv.Sender, "now", inv.Now)
	res, st, err := e.apply(ctx, inv)
	e.metrics.ObserveInvocation(inv.Op, err)
	if err != nil {
		logRejection(e.logger, inv, err)
		return Result{}, err
	}
	e.metrics.ObserveState(st)
	e.logger.Info("invocation committed",
		"seq", res.Seq,
		"id", res.ID,
		"op", inv.Op,
		"sender", inv.Sender,
		"now", inv.Now,
	)
	return res, nil
}

func validateInvocation(inv ir.Invocation) error {
	if !knownOp(inv.Op) {
		return ir.Errorf(ir.CodeInvalidArgument, "unknown operation %q", inv.Op)
	}
	if inv.Sender == "" {
		return ir.Errorf(ir.CodeInvalidArgument, "sender is required")
	}
	if inv.Sender.IsModule() {
		return ir.Errorf(ir.CodeUnauthorized, "module account %s cannot send invocations", inv.Sender)
	}
	if inv.Now > ir.MaxTime {
		return ir.Errorf(ir.CodeArithmeticOverflow, "time %d is beyond the supported range", inv.Now)
	}
	return nil
}

func knownOp(op ir.Op) bool {
	for _, known := range ir.Ops {
		if op == known {
			return true
		}
	}
	return false
}

func (e *Engine) apply(ctx context.Context, inv ir.Invocation) (Result, ir.State, error) {
	if err := validateInvocation(inv); err != nil {
		return Result{}, ir.State{}, err
	}
	if inv.Args == nil {
		inv.Args = ir.IRObject{}
	}
	digest, err := ir.InvocationDigest(inv)
	if err != nil {
		return Result{}, ir.State{}, ir.Wrap(ir.CodeInvalidArgument, err, "digest invocation")
	}

	var (
		res       Result
		committed ir.State
	)
	err = e.store.Update(ctx, func(tx *store.Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		st, err := tx.State(ctx)
		if err != nil {
			return err
		}
		if inv.Now < st.LastTime {
			return ir.Errorf(ir.CodeTimeRegression, "time %d is before the last invocation at %d", inv.Now, st.LastTime)
		}

		m := e.modules(tx, cfg, inv.Now)
		out, err := m.execute(ctx, inv)
		if err != nil {
			return err
		}
		if e.checks {
			if err := m.ledger.CheckInvariants(ctx); err != nil {
				var v *ir.InvariantViolation
				if errors.As(err, &v) {
					panic(v)
				}
				return err
			}
		}

		if st, err = tx.State(ctx); err != nil {
			return err
		}
		st.LastTime = inv.Now
		st.InvocationSeq++

		id := inv.ID
		if id == "" {
			id = e.ids.Generate()
		}
		rec := store.InvocationRecord{
			Seq:    st.InvocationSeq,
			ID:     id,
			Op:     inv.Op,
			Sender: inv.Sender,
			Now:    inv.Now,
			Args:   inv.Args,
			Digest: digest,
			Result: out,
		}
		if err := tx.WriteInvocation(ctx, rec); err != nil {
			return err
		}
		if err := tx.PutState(ctx, st); err != nil {
			return err
		}
		res = Result{Seq: rec.Seq, ID: id, Op: inv.Op, Digest: digest, Output: out}
		committed = st
		return nil
	})
	if err != nil {
		return Result{}, ir.State{}, err
	}
	return res, committed, nil
}

// modules is the set of domain components bound to one transaction.
type modules struct {
	cfg     ir.Config
	bank    *token.Bank
	ledger  *ledger.Ledger
	gov     *gov.Manager
	rewards *rewards.Engine
}

func (e *Engine) modules(tx *store.Tx, cfg ir.Config, now uint64) *modules {
	bank := token.NewBank(tx)
	rw := rewards.New(tx, bank, cfg)
	led := ledger.New(tx, bank, cfg.StakingToken, ledger.WithHook(rw))

	var sub dispatch.Submitter = dispatch.NewOutbox(tx, now)
	if e.submitter != nil {
		sub = e.submitter
	}
	d := dispatch.New(e.registry, sub, dispatch.WithLogger(e.logger))

	return &modules{
		cfg:     cfg,
		bank:    bank,
		ledger:  led,
		gov:     gov.NewManager(tx, bank, led, d, cfg),
		rewards: rw,
	}
}

// view runs fn against a read-only set of modules.
func (e *Engine) view(ctx context.Context, fn func(tx *store.Tx, m *modules) error) error {
	return e.store.View(ctx, func(tx *store.Tx) error {
		cfg, err := tx.Config(ctx)
		if err != nil {
			return err
		}
		return fn(tx, e.modules(tx, cfg, 0))
	})
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}
