package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakegov/internal/ir"
)

func TestObserveInvocation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveInvocation(ir.OpStake, nil)
	m.ObserveInvocation(ir.OpStake, nil)
	m.ObserveInvocation(ir.OpUnstake, ir.ErrInsufficientUnlockedShare)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocations.WithLabelValues("stake", OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("unstake", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("INSUFFICIENT_UNLOCKED_SHARE")))
}

func TestObserveState(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveState(ir.State{
		Ledger:        ir.Ledger{TotalShare: 1200, TotalBalance: 1800},
		ProposalCount: 3,
		LastTime:      42,
		InvocationSeq: 9,
	})

	assert.Equal(t, 1200.0, testutil.ToFloat64(m.totalShare))
	assert.Equal(t, 1800.0, testutil.ToFloat64(m.totalBalance))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.proposals))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.lastTime))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.invocationSeq))
}

func TestNilAndUnregistered(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveInvocation(ir.OpStake, nil)
		m.ObserveState(ir.State{})
	})

	unregistered := New(nil)
	assert.NotPanics(t, func() {
		unregistered.ObserveInvocation(ir.OpStake, ir.ErrZeroAmount)
		unregistered.ObserveState(ir.State{})
	})
}

func TestRegisterIsIdempotent(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	assert.NotPanics(t, func() { m.Register(registry) })
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.ObserveInvocation(ir.OpTally, nil)

	path := filepath.Join(t.TempDir(), "stakegov.prom")
	require.NoError(t, WriteTextfile(path, registry))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data),
		`stakegov_invocations_total{op="tally",outcome="committed"} 1`), string(data))
}
