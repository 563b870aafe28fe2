package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stakegov/internal/ir"
)

// TraceSnapshot is the golden form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Canonical renders the snapshot as canonical JSON. Empty args and
// results are omitted.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		obj := ir.IRObject{
			"type": ir.IRString(event.Type),
			"seq":  ir.IRInt(event.Seq),
			"now":  ir.Uint(event.Now),
		}
		if event.Op != "" {
			obj["op"] = ir.IRString(event.Op)
		}
		if event.Sender != "" {
			obj["sender"] = ir.IRString(event.Sender)
		}
		if len(event.Args) > 0 {
			obj["args"] = event.Args
		}
		if event.OutputCase != "" {
			obj["output_case"] = ir.IRString(event.OutputCase)
		}
		if len(event.Result) > 0 {
			obj["result"] = event.Result
		}
		trace[i] = obj
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
	})
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// RunWithGolden runs a scenario and compares its trace with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	data, err := snapshot.Canonical()
	if err != nil {
		return err
	}
	newGoldie(t).Assert(t, scenarioName, data)
	return nil
}
