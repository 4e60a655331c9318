package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reservation outcomes
const (
	OutcomeReserved    = "reserved"
	OutcomeConflict    = "conflict"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeProcessed   = "processed"
	OutcomeDuplicate   = "duplicate"
	OutcomeIgnored     = "ignored"
	OutcomeRetry       = "retry"
	OutcomeRefunded    = "refunded"
	OutcomeRefundError = "refund_failed"
)

// Metrics holds all Prometheus metrics of the sponsorship API.
// Every method is safe on a nil receiver.
type Metrics struct {
	// Reservation protocol
	ReservationsTotal  *prometheus.CounterVec
	CompensationsTotal *prometheus.CounterVec

	// Payment reconciliation
	WebhookEventsTotal *prometheus.CounterVec
	RefundsTotal       *prometheus.CounterVec

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sponsorwall_reservations_total",
				Help: "Position reservation attempts by outcome",
			},
			[]string{"outcome"},
		),
		CompensationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sponsorwall_compensations_total",
				Help: "Reservations released after a failed follow-up step",
			},
			[]string{"result"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sponsorwall_webhook_events_total",
				Help: "Payment provider webhook events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		RefundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sponsorwall_refunds_total",
				Help: "Automatic refunds by outcome",
			},
			[]string{"outcome"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sponsorwall_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sponsorwall_api_request_duration_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.ReservationsTotal,
		m.CompensationsTotal,
		m.WebhookEventsTotal,
		m.RefundsTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncReservation(outcome string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(outcome).Inc()
}

// IncCompensation records a release after failure; released is false when
// the release itself failed and the position stays taken.
func (m *Metrics) IncCompensation(released bool) {
	if m == nil {
		return
	}
	result := "released"
	if !released {
		result = "release_failed"
	}
	m.CompensationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) IncRefund(outcome string) {
	if m == nil {
		return
	}
	m.RefundsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.APIRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
