package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the fulfillment counters and histograms. A nil *Metrics is a no-op.
type Metrics struct {
	checkouts       *prometheus.CounterVec
	callbacks       *prometheus.CounterVec
	deductions      *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_requests_total",
				Help: "Checkout attempts by payment method and outcome.",
			},
			[]string{"payment_method", "outcome"},
		),
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_callbacks_total",
				Help: "Payment gateway callbacks and client confirmations by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		deductions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_deductions_total",
				Help: "Inventory deduction runs by outcome.",
			},
			[]string{"outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_gateway_request_duration_seconds",
				Help:    "Duration of outbound payment gateway calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"gateway", "outcome"},
		),
	}
	reg.MustRegister(m.checkouts, m.callbacks, m.deductions, m.gatewayDuration)
	return m
}

func (m *Metrics) Checkout(method, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) Callback(source, outcome string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) Deduction(outcome string) {
	if m == nil {
		return
	}
	m.deductions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GatewayRequest(gateway, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(gateway, outcome).Observe(seconds)
}
