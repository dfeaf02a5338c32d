package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	txCommittedCounter   *prometheus.CounterVec
	txAbortedCounter     *prometheus.CounterVec
	txConflictCounter    *prometheus.CounterVec
	settlementCounter    prometheus.Counter
	activeTablesGauge    prometheus.Gauge
	rejectedMovesCounter prometheus.Counter
}

func (m *metrics) TxCommitted(handler string) {
	m.txCommittedCounter.WithLabelValues(handler).Inc()
}

func (m *metrics) TxAborted(handler string) {
	m.txAbortedCounter.WithLabelValues(handler).Inc()
}

func (m *metrics) TxConflict(handler string) {
	m.txConflictCounter.WithLabelValues(handler).Inc()
}

func (m *metrics) HandSettled() {
	m.settlementCounter.Inc()
}

func (m *metrics) MoveRejected() {
	m.rejectedMovesCounter.Inc()
}

func (m *metrics) SetActiveTables(count int) {
	m.activeTablesGauge.Set(float64(count))
}

var Metrics = &metrics{
	txCommittedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofc_transactions_committed_total",
		Help: "Total number of committed table transactions",
	}, []string{"handler"}),
	txAbortedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofc_transactions_aborted_total",
		Help: "Total number of table transactions aborted by their handler",
	}, []string{"handler"}),
	txConflictCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ofc_transaction_conflicts_total",
		Help: "Total number of transaction attempts retried because of a concurrent write",
	}, []string{"handler"}),
	settlementCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "ofc_hands_settled_total",
		Help: "Total number of hands settled",
	}),
	activeTablesGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ofc_active_tables",
		Help: "Number of tables with a running state machine",
	}),
	rejectedMovesCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "ofc_moves_rejected_total",
		Help: "Total number of proposed placements rejected by validation",
	}),
}
