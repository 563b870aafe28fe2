// Package metrics exposes invocation and ledger gauges in Prometheus form.
//
// The core is a one-shot process per invocation batch, so nothing is
// served over HTTP; the CLI writes the registry to a node-exporter
// textfile when asked.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/stakegov/internal/ir"
)

const namespace = "stakegov"

// Outcome labels.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
)

// Metrics records invocation outcomes and ledger state. A nil *Metrics and
// an unregistered one are both valid and record nothing.
type Metrics struct {
	invocations   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	totalShare    prometheus.Gauge
	totalBalance  prometheus.Gauge
	proposals     prometheus.Gauge
	schedules     prometheus.Gauge
	lastTime      prometheus.Gauge
	invocationSeq prometheus.Gauge

	registerOnce sync.Once
}

// New returns Metrics registered with registry. A nil registry yields
// Metrics that record nothing.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

// Register creates the collectors on registry. Subsequent calls are
// no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.invocations = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Invocations applied, by operation and outcome",
		}, []string{"op", "outcome"})

		m.rejections = factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected invocations by error code",
		}, []string{"code"})

		m.totalShare = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_total_share",
			Help:      "Outstanding shares",
		})
		m.totalBalance = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_total_balance",
			Help:      "Staking tokens backing the outstanding shares",
		})
		m.proposals = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proposals_created",
			Help:      "Proposals created since genesis",
		})
		m.schedules = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reward_schedules_created",
			Help:      "Reward schedules created since genesis",
		})
		m.lastTime = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_invocation_time",
			Help:      "Logical time of the last committed invocation",
		})
		m.invocationSeq = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocation_seq",
			Help:      "Sequence number of the last committed invocation",
		})
	})
}

// ObserveInvocation counts one applied invocation. err is the rejection,
// or nil when the invocation committed.
func (m *Metrics) ObserveInvocation(op ir.Op, err error) {
	if m == nil || m.invocations == nil {
		return
	}
	if err == nil {
		m.invocations.WithLabelValues(string(op), OutcomeCommitted).Inc()
		return
	}
	m.invocations.WithLabelValues(string(op), OutcomeRejected).Inc()
	code := ir.CodeOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	m.rejections.WithLabelValues(string(code)).Inc()
}

// ObserveState sets the ledger gauges from a committed state.
func (m *Metrics) ObserveState(st ir.State) {
	if m == nil || m.totalShare == nil {
		return
	}
	m.totalShare.Set(float64(st.TotalShare))
	m.totalBalance.Set(float64(st.TotalBalance))
	m.proposals.Set(float64(st.ProposalCount))
	m.schedules.Set(float64(st.ScheduleCount))
	m.lastTime.Set(float64(st.LastTime))
	m.invocationSeq.Set(float64(st.InvocationSeq))
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, replacing the file atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
