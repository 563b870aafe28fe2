package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// Mismatch is a replayed invocation whose outcome differs from the log.
type Mismatch struct {
	Seq   int64  `json:"seq"`
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Applied    int        `json:"applied"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether every record replayed identically.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-applies audit records to e in order and compares each outcome
// with what was recorded. e should be freshly initialized with the same
// config as the source store.
//
// Only committed invocations are logged, and each is a pure function of
// the state before it, so a faithful replay reproduces every digest and
// result. A record that is now rejected ends the replay with an error.
func Replay(ctx context.Context, e *Engine, records []store.InvocationRecord) (ReplayReport, error) {
	report := ReplayReport{Mismatches: []Mismatch{}}
	for _, rec := range records {
		inv := ir.Invocation{
			ID:     rec.ID,
			Op:     rec.Op,
			Sender: rec.Sender,
			Now:    rec.Now,
			Args:   rec.Args,
		}
		res, err := e.Apply(ctx, inv)
		if err != nil {
			return report, fmt.Errorf("replay seq %d (%s): %w", rec.Seq, rec.Op, err)
		}
		report.Applied++

		if res.Seq != rec.Seq {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq: rec.Seq, Field: "seq",
				Want: fmt.Sprint(rec.Seq), Got: fmt.Sprint(res.Seq),
			})
		}
		if res.Digest != rec.Digest {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq: rec.Seq, Field: "digest", Want: rec.Digest, Got: res.Digest,
			})
		}
		want, err := ir.MarshalCanonical(rec.Result)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		got, err := ir.MarshalCanonical(res.Output)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		if !bytes.Equal(want, got) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Seq: rec.Seq, Field: "result", Want: string(want), Got: string(got),
			})
		}
	}
	return report, nil
}
