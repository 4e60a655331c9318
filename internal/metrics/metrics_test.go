package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew(t *testing.T) {
	m := New()
	if m.Registry() == nil {
		t.Fatal("Registry() returned nil")
	}
	if m.ReservationsTotal == nil || m.WebhookEventsTotal == nil || m.RefundsTotal == nil {
		t.Fatal("domain counters must be registered")
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.IncReservation(OutcomeReserved)
	m.IncReservation(OutcomeConflict)
	m.IncReservation(OutcomeConflict)
	m.IncCompensation(true)
	m.IncCompensation(false)
	m.IncWebhookEvent("payment_intent.succeeded", OutcomeDuplicate)
	m.IncRefund(OutcomeRefundError)

	if got := testutil.ToFloat64(m.ReservationsTotal.WithLabelValues(OutcomeConflict)); got != 2 {
		t.Errorf("conflict reservations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CompensationsTotal.WithLabelValues("release_failed")); got != 1 {
		t.Errorf("failed compensations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.WebhookEventsTotal.WithLabelValues("payment_intent.succeeded", OutcomeDuplicate)); got != 1 {
		t.Errorf("duplicate webhooks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RefundsTotal.WithLabelValues(OutcomeRefundError)); got != 1 {
		t.Errorf("failed refunds = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncReservation(OutcomeReserved)
	m.IncCompensation(true)
	m.IncWebhookEvent("x", OutcomeProcessed)
	m.IncRefund(OutcomeRefunded)
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/v1/sponsorships", 201, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sponsorwall_api_requests_total") {
		t.Error("exposition should include the request counter")
	}
}
