package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Allocation metrics
	Recalculations        *prometheus.CounterVec
	RecalculationDuration prometheus.Histogram
	EntriesUpdated        prometheus.Counter
	AmountAllocated       prometheus.Counter
	InvariantViolations   prometheus.Counter

	// Batch metrics
	BatchCustomers *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Recalculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custbalance_recalculations_total",
				Help: "Total balance recalculations by outcome",
			},
			[]string{"outcome"},
		),
		RecalculationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "custbalance_recalculation_duration_seconds",
			Help:    "Duration of balance recalculations",
			Buckets: prometheus.DefBuckets,
		}),
		EntriesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "custbalance_entries_updated_total",
			Help: "Total ledger entries written by recalculations",
		}),
		AmountAllocated: factory.NewCounter(prometheus.CounterOpts{
			Name: "custbalance_amount_allocated_total",
			Help: "Total amount moved from credits to debits",
		}),
		InvariantViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "custbalance_invariant_violations_total",
			Help: "Open balance entries found closed or out of range",
		}),

		BatchCustomers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custbalance_batch_customers_total",
				Help: "Customers processed by batch runs by outcome",
			},
			[]string{"outcome"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custbalance_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "custbalance_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "custbalance_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}

// RecalculationCompleted implements usecase.BalanceMetrics.
func (m *Metrics) RecalculationCompleted(outcome string, duration time.Duration, updated int, moved decimal.Decimal) {
	m.Recalculations.WithLabelValues(outcome).Inc()
	m.RecalculationDuration.Observe(duration.Seconds())
	m.EntriesUpdated.Add(float64(updated))
	m.AmountAllocated.Add(moved.InexactFloat64())
}

// InvariantViolation implements usecase.BalanceMetrics.
func (m *Metrics) InvariantViolation() {
	m.InvariantViolations.Inc()
}

// BatchCustomerProcessed implements usecase.BalanceMetrics.
func (m *Metrics) BatchCustomerProcessed(outcome string) {
	m.BatchCustomers.WithLabelValues(outcome).Inc()
}
