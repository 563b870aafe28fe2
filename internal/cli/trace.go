package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/ir"
	"github.com/roach88/stakegov/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Op     string
	Sender string
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	Invocations []store.InvocationRecord `json:"invocations"`
	Count       int                      `json:"count"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the audit log of committed invocations",
		Long: `Show committed invocations in seq order, with their arguments,
digests and results. Rejected invocations are never logged.

Examples:
  stakegov trace --db ./gov.db
  stakegov trace --db ./gov.db --op cast_vote --after 100
  stakegov trace --db ./gov.db --sender alice --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "show invocations with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum invocations to read (0 for all)")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter by operation")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "filter by sender")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)
	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	recs, err := sess.engine.Invocations(cmd.Context(), opts.After, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read audit log", err)
	}
	recs = filterRecords(recs, ir.Op(opts.Op), ir.Address(opts.Sender))

	result := TraceResult{Invocations: recs, Count: len(recs)}
	return out.Success(result, formatTrace(recs))
}

func filterRecords(recs []store.InvocationRecord, op ir.Op, sender ir.Address) []store.InvocationRecord {
	filtered := make([]store.InvocationRecord, 0, len(recs))
	for _, rec := range recs {
		if op != "" && rec.Op != op {
			continue
		}
		if sender != "" && rec.Sender != sender {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

func formatTrace(recs []store.InvocationRecord) string {
	if len(recs) == 0 {
		return "No invocations."
	}
	var buf strings.Builder
	for i, rec := range recs {
		if i > 0 {
			buf.WriteByte('\n')
		}
		args, _ := ir.MarshalCanonical(rec.Args)
		res, _ := ir.MarshalCanonical(rec.Result)
		fmt.Fprintf(&buf, "[%d] %s by %s at %d %s -> %s (%s)",
			rec.Seq, rec.Op, rec.Sender, rec.Now, args, res, rec.ID)
	}
	return buf.String()
}
