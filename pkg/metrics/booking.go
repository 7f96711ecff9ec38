package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics counts lifecycle transitions and escrow settlements.
type BookingMetrics struct {
	transitions *prometheus.CounterVec
	settlements *prometheus.CounterVec
	settled     *prometheus.CounterVec
	outboxQueue prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_transitions_total",
		Help:      "Committed booking status transitions.",
	}, []string{"from", "to", "actor"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrow_settlements_total",
		Help:      "Escrow releases and refunds, by outcome and trigger.",
	}, []string{"outcome", "trigger"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrow_settled_amount_total",
		Help:      "Whole currency units moved out of escrow.",
	}, []string{"outcome"})
	outboxQueue := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outbox_pending_events",
		Help:      "Outbox rows waiting to be published.",
	})
	reg.MustRegister(transitions, settlements, settled, outboxQueue)
	return &BookingMetrics{
		transitions: transitions,
		settlements: settlements,
		settled:     settled,
		outboxQueue: outboxQueue,
	}
}

func (m *BookingMetrics) ObserveTransition(from, to, actor string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(actor)).Inc()
}

// ObserveSettlement records one escrow leaving the held state.
func (m *BookingMetrics) ObserveSettlement(outcome, trigger string, amount int64) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome), normalizeLabel(trigger)).Inc()
	if amount > 0 {
		m.settled.WithLabelValues(normalizeLabel(outcome)).Add(float64(amount))
	}
}

func (m *BookingMetrics) SetOutboxPending(n int64) {
	if m == nil || m.outboxQueue == nil {
		return
	}
	m.outboxQueue.Set(float64(n))
}
