package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

func startLoop(t *testing.T, e *Engine) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	return cancel, done
}

func TestSubmitAppliesInOrder(t *testing.T) {
	e := newEngine(t, testConfig())
	cancel, done := startLoop(t, e)
	ctx := context.Background()

	res, err := e.Submit(ctx, call(ir.OpMint, "admin", 1, "to", "alice", "amount", 50))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Seq)

	_, err = e.Submit(ctx, call(ir.OpStake, "alice", 2, "amount", 0))
	assert.ErrorIs(t, err, ir.ErrZeroAmount)

	res, err = e.Submit(ctx, call(ir.OpStake, "alice", 3, "amount", 50))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Seq)
	assert.Equal(t, ir.IRInt(50), res.Output["minted_shares"])

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	_, err = e.Submit(ctx, call(ir.OpStake, "alice", 4, "amount", 1))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestSubmitConcurrently(t *testing.T) {
	e := newEngine(t, testConfig())
	cancel, done := startLoop(t, e)
	defer func() {
		cancel()
		<-done
	}()
	ctx := context.Background()
	_, err := e.Submit(ctx, call(ir.OpMint, "admin", 0, "to", "alice", "amount", 100))
	require.NoError(t, err)

	const n = 10
	errs := make(chan error, n)
	for range n {
		go func() {
			_, err := e.Submit(ctx, call(ir.OpStake, "alice", 0, "amount", 10))
			errs <- err
		}()
	}
	for range n {
		assert.NoError(t, <-errs)
	}

	st, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.TotalShare)
	assert.Equal(t, int64(n+1), st.InvocationSeq)
}

func TestStopEndsLoop(t *testing.T) {
	e := newEngine(t, testConfig())
	cancel, done := startLoop(t, e)
	defer cancel()

	_, err := e.Submit(context.Background(), call(ir.OpMint, "admin", 0, "to", "alice", "amount", 1))
	require.NoError(t, err)

	e.Stop()
	assert.NoError(t, <-done)

	_, err = e.Submit(context.Background(), call(ir.OpMint, "admin", 0, "to", "alice", "amount", 1))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestSubmitHonoursCallerContext(t *testing.T) {
	e := newEngine(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Submit(ctx, call(ir.OpMint, "admin", 0, "to", "alice", "amount", 1))
	assert.ErrorIs(t, err, context.Canceled)

	// The abandoned request is dropped without being applied.
	loopCancel, done := startLoop(t, e)
	res, err := e.Submit(context.Background(), call(ir.OpMint, "admin", 0, "to", "alice", "amount", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Seq)
	loopCancel()
	<-done
}

func TestRunCancelledDropsQueuedRequests(t *testing.T) {
	e := newEngine(t, testConfig())

	const n = 3
	errs := make(chan error, n)
	for i := range n {
		go func() {
			_, err := e.Submit(context.Background(), call(ir.OpMint, "admin", uint64(i), "to", "alice", "amount", 5))
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return e.queue.Len() == n }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, e.Run(ctx), context.Canceled)

	for range n {
		assert.ErrorIs(t, <-errs, ErrStopped)
	}
	st, err := e.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.InvocationSeq)
	assert.Equal(t, uint64(0), st.TotalBalance)
}
