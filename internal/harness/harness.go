package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/stakegov/internal/config"
	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
	"github.com/roach88/stakegov/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.Clock
	logger *slog.Logger
}

// Run executes a scenario in a fresh in-memory store and returns the
// result. An error means the scenario could not be run at all: a bad
// config, or a setup step that was rejected.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := scenarioConfig(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := testutil.DiscardLogger()
	h := &Harness{
		store: st,
		engine: engine.New(st,
			engine.WithIDGenerator(engine.NewSequentialGenerator(scenario.Name)),
			engine.WithLogger(logger),
			engine.WithInvariantChecks(true),
		),
		clock:  testutil.NewClock(0),
		logger: logger,
	}

	ctx := context.Background()
	if err := h.engine.Init(ctx, cfg); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Engine: h.engine}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// scenarioConfig renders the overrides as JSON, which is valid CUE, and
// decodes them through the config schema.
func scenarioConfig(overrides map[string]any) (ir.Config, error) {
	fields := map[string]any{"admin": "admin"}
	for k, v := range overrides {
		fields[k] = v
	}
	src, err := json.Marshal(fields)
	if err != nil {
		return ir.Config{}, err
	}
	return config.Parse("scenario", src)
}

// invocation resolves the step's logical time and arguments.
func (h *Harness) invocation(step Step) (ir.Invocation, error) {
	switch {
	case step.Now != nil:
		if err := h.clock.Set(*step.Now); err != nil {
			return ir.Invocation{}, err
		}
	case step.Advance > 0:
		h.clock.Advance(step.Advance)
	}
	args, err := convertArgsToIRObject(step.Args)
	if err != nil {
		return ir.Invocation{}, err
	}
	return ir.Invocation{
		Op:     step.Op,
		Sender: step.Sender,
		Now:    h.clock.Now(),
		Args:   args,
	}, nil
}

func (h *Harness) apply(ctx context.Context, inv ir.Invocation, result *Result) (string, ir.IRObject, error) {
	result.AddInvocationTrace(inv)
	res, err := h.engine.Apply(ctx, inv)
	if err != nil {
		code := ir.CodeOf(err)
		if code == "" {
			return "", nil, err
		}
		result.AddCompletionTrace(inv.Now, string(code), nil)
		return string(code), nil, nil
	}
	result.AddCompletionTrace(inv.Now, CaseOK, res.Output)
	return CaseOK, res.Output, nil
}

// executeSetup runs setup steps. Any rejection aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []Step, result *Result) error {
	for i, step := range setup {
		inv, err := h.invocation(step)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		outputCase, _, err := h.apply(ctx, inv, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outputCase != CaseOK {
			return fmt.Errorf("setup step %d (%s): rejected with %s", i, step.Op, outputCase)
		}
		h.logger.Debug("setup step committed", "step", i, "op", step.Op)
	}
	return nil
}

// executeFlow runs flow steps and checks each against its expect clause.
// Mismatches are recorded on the result; the flow continues.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		inv, err := h.invocation(step)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		outputCase, output, err := h.apply(ctx, inv, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		expected := CaseOK
		var want map[string]any
		if step.Expect != nil {
			expected = step.Expect.Case
			want = step.Expect.Result
		}
		if outputCase != expected {
			result.AddError(fmt.Sprintf("flow step %d (%s at %d): expected %s, got %s",
				i, step.Op, inv.Now, expected, outputCase))
			continue
		}
		if len(want) > 0 {
			wantObj, err := convertArgsToIRObject(want)
			if err != nil {
				return fmt.Errorf("flow step %d: expected result: %w", i, err)
			}
			if !matchObject(output, wantObj) {
				result.AddError(fmt.Sprintf("flow step %d (%s): expected result %s, got %s",
					i, step.Op, describe(wantObj), describe(output)))
			}
		}
		h.logger.Debug("flow step checked", "step", i, "op", step.Op, "case", outputCase)
	}
	return nil
}

// convertArgsToIRObject converts YAML-decoded values to IR values.
func convertArgsToIRObject(args map[string]any) (ir.IRObject, error) {
	result := make(ir.IRObject, len(args))
	for key, val := range args {
		irVal, err := convertToIRValue(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		result[key] = irVal
	}
	return result, nil
}

// convertToIRValue handles the types yaml.v3 produces. Whole floats become
// integers; anything else fractional is rejected.
func convertToIRValue(val any) (ir.IRValue, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not allowed")
	case float64:
		if v == float64(int64(v)) {
			return ir.IRInt(int64(v)), nil
		}
		return nil, fmt.Errorf("floats are not allowed: %v", v)
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, elem := range v {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return convertArgsToIRObject(v)
	default:
		return ir.ToIRValue(val)
	}
}

func describe(obj ir.IRObject) string {
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}
