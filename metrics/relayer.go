package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RelayerMetrics tracks the relay's progress on the ledger and the
// transactions it sends there.
type RelayerMetrics struct {
	lastSlot           prometheus.Gauge
	lastPeriod         prometheus.Gauge
	pendingCheckpoints prometheus.Gauge
	participation      prometheus.Gauge
	submittedTxs       *prometheus.CounterVec
}

// NewRelayerMetrics creates the collectors and registers them on reg.
func NewRelayerMetrics(reg prometheus.Registerer) *RelayerMetrics {
	m := &RelayerMetrics{
		lastSlot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayer_last_slot",
			Help: "The beacon slot of the last header batch committed on the ledger",
		}),
		lastPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayer_last_period",
			Help: "The last sync committee period proven on the ledger",
		}),
		pendingCheckpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayer_pending_checkpoints",
			Help: "The number of persisted checkpoints not yet confirmed by the ledger",
		}),
		participation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relayer_sync_committee_participation",
			Help: "The number of sync committee signers of the last submitted light client update",
		}),
		submittedTxs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relayer_submitted_transactions_total",
				Help: "The number of transactions sent to the ledger",
			},
			[]string{"method", "outcome"},
		),
	}

	reg.MustRegister(
		m.lastSlot,
		m.lastPeriod,
		m.pendingCheckpoints,
		m.participation,
		m.submittedTxs,
	)

	return m
}

func (m *RelayerMetrics) RecordLastSlot(slot uint64) {
	m.lastSlot.Set(float64(slot))
}

func (m *RelayerMetrics) RecordLastPeriod(period uint64) {
	m.lastPeriod.Set(float64(period))
}

func (m *RelayerMetrics) RecordPendingCheckpoints(n int) {
	m.pendingCheckpoints.Set(float64(n))
}

func (m *RelayerMetrics) RecordParticipation(signers uint64) {
	m.participation.Set(float64(signers))
}

func (m *RelayerMetrics) IncrementSubmittedTxs(method string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.submittedTxs.WithLabelValues(method, outcome).Inc()
}
