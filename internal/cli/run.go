package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/stakegov/internal/engine"
	"github.com/roach88/stakegov/internal/ir"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	StopOnReject bool
}

// RunSummary is printed after the input is exhausted.
type RunSummary struct {
	Committed int `json:"committed"`
	Rejected  int `json:"rejected"`
}

// invocationLine is one line of run input. Now defaults to the time of the
// last committed invocation.
type invocationLine struct {
	ID     string      `json:"id,omitempty"`
	Op     ir.Op       `json:"op"`
	Sender ir.Address  `json:"sender"`
	Now    *uint64     `json:"now,omitempty"`
	Args   ir.IRObject `json:"args,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Apply a stream of invocations",
		Long: `Start the engine loop and apply invocations read as JSON lines from
a file, or from stdin when no file (or "-") is given. Each line is

  {"op":"stake","sender":"alice","now":5,"args":{"amount":100}}

Blank lines and lines starting with # are skipped. One result is printed
per invocation. The exit code is 1 if any invocation was rejected.

Examples:
  stakegov run --db ./gov.db ./invocations.jsonl
  tail -f requests.jsonl | stakegov run --db ./gov.db --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runEngine(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.StopOnReject, "stop-on-reject", false, "stop at the first rejected invocation")

	return cmd
}

func runEngine(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		in = f
	}

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()
	if _, err := sess.engine.State(cmd.Context()); err != nil {
		return WrapExitError(ExitCommandError, "failed to read state", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- sess.engine.Run(ctx)
	}()

	summary, submitErr := submitLines(ctx, sess.engine, in, out, opts.StopOnReject)
	sess.engine.Stop()
	loopErr := <-loopDone

	if submitErr != nil {
		return WrapExitError(ExitCommandError, "run failed", submitErr)
	}
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return WrapExitError(ExitCommandError, "engine error", loopErr)
	}

	text := fmt.Sprintf("Run Summary: %d committed, %d rejected", summary.Committed, summary.Rejected)
	if out.Format == "json" {
		if err := out.Success(summary, ""); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out.GetErrWriter(), text)
	}
	if summary.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invocation(s) rejected", summary.Rejected))
	}
	return nil
}

// submitLines feeds every input line to the engine loop. It returns an
// error only when reading input or the engine itself fails.
func submitLines(ctx context.Context, e *engine.Engine, in io.Reader, out *OutputFormatter, stopOnReject bool) (RunSummary, error) {
	var summary RunSummary
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		res, err := submitLine(ctx, e, line)
		if err != nil {
			if ir.CodeOf(err) == "" {
				return summary, fmt.Errorf("line %d: %w", lineNo, err)
			}
			summary.Rejected++
			var irErr *ir.Error
			errors.As(err, &irErr)
			if outErr := out.Error(string(irErr.Code), fmt.Sprintf("line %d: %s", lineNo, irErr.Message), nil); outErr != nil {
				return summary, outErr
			}
			if stopOnReject {
				return summary, nil
			}
			continue
		}
		summary.Committed++
		if err := out.Success(res, describeResult(res)); err != nil {
			return summary, err
		}
	}
	return summary, scanner.Err()
}

func submitLine(ctx context.Context, e *engine.Engine, line string) (engine.Result, error) {
	var l invocationLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return engine.Result{}, ir.Wrap(ir.CodeInvalidArgument, err, "invalid invocation JSON")
	}
	inv := ir.Invocation{ID: l.ID, Op: l.Op, Sender: l.Sender, Args: l.Args}
	if l.Now != nil {
		inv.Now = *l.Now
	} else {
		st, err := e.State(ctx)
		if err != nil {
			return engine.Result{}, err
		}
		inv.Now = st.LastTime
	}
	return e.Submit(ctx, inv)
}
