package engine

import (
	"context"

	"github.com/roach88/stakegov/internal/ir"
)

// Run drains submitted invocations in FIFO order until ctx is cancelled or
// Stop is called. It must be called from exactly one goroutine. A rejected
// invocation is reported to its submitter and the loop continues. Once ctx
// is cancelled no further invocation is applied; whatever is still queued
// fails with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine loop starting")
	for {
		if err := ctx.Err(); err != nil {
			return e.cancelled(err)
		}
		if r, ok := e.queue.TryDequeue(); ok {
			e.serve(r)
			continue
		}

		select {
		case <-ctx.Done():
			return e.cancelled(ctx.Err())
		case _, open := <-e.queue.Wait():
			if !open && e.queue.Len() == 0 {
				e.logger.Info("engine loop stopping", "reason", "stopped")
				return nil
			}
		}
	}
}

func (e *Engine) cancelled(err error) error {
	left := e.queue.Close()
	e.logger.Info("engine loop stopping", "reason", err, "dropped", len(left))
	e.failAll(left)
	return err
}

func (e *Engine) serve(r *request) {
	if err := r.ctx.Err(); err != nil {
		r.reply <- reply{err: err}
		return
	}
	res, err := e.Apply(r.ctx, r.inv)
	r.reply <- reply{res: res, err: err}
}

func (e *Engine) failAll(left []*request) {
	for _, r := range left {
		r.reply <- reply{err: ErrStopped}
	}
}

// Submit hands inv to the Run loop and waits for its result.
func (e *Engine) Submit(ctx context.Context, inv ir.Invocation) (Result, error) {
	r := &request{ctx: ctx, inv: inv, reply: make(chan reply, 1)}
	if !e.queue.Enqueue(r) {
		return Result{}, ErrStopped
	}
	select {
	case rep := <-r.reply:
		return rep.res, rep.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop closes the submission queue. Requests already queued fail with
// ErrStopped and Run returns.
func (e *Engine) Stop() {
	e.failAll(e.queue.Close())
}
