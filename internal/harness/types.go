package harness

import "github.com/roach88/stakegov/internal/ir"

// CaseOK is the expected case of a committed invocation.
const CaseOK = "ok"

// TraceEvent is one entry of a scenario trace: either an invocation as
// submitted or its completion.
type TraceEvent struct {
	Type   string      `json:"type"` // "invocation" or "completion"
	Op     ir.Op       `json:"op,omitempty"`
	Sender ir.Address  `json:"sender,omitempty"`
	Now    uint64      `json:"now"`
	Args   ir.IRObject `json:"args,omitempty"`
	// OutputCase is CaseOK or the rejection code.
	OutputCase string      `json:"output_case,omitempty"`
	Result     ir.IRObject `json:"result,omitempty"`
	Seq        int64       `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every setup and flow invocation and its completion.
	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) nextSeq() int64 {
	return int64(len(r.Trace) + 1)
}

// AddInvocationTrace appends an invocation event.
func (r *Result) AddInvocationTrace(inv ir.Invocation) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   "invocation",
		Op:     inv.Op,
		Sender: inv.Sender,
		Now:    inv.Now,
		Args:   inv.Args,
		Seq:    r.nextSeq(),
	})
}

// AddCompletionTrace appends a completion event.
func (r *Result) AddCompletionTrace(now uint64, outputCase string, result ir.IRObject) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:       "completion",
		Now:        now,
		OutputCase: outputCase,
		Result:     result,
		Seq:        r.nextSeq(),
	})
}
