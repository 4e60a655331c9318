package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindCampaignNotFound, http.StatusNotFound},
		{KindPositionNotFound, http.StatusNotFound},
		{KindInvalidPricingConfig, http.StatusBadRequest},
		{KindAmountMismatch, http.StatusBadRequest},
		{KindWebhookVerificationFailed, http.StatusBadRequest},
		{KindPositionUnavailable, http.StatusConflict},
		{KindSponsorsExist, http.StatusConflict},
		{KindAlreadyClosed, http.StatusConflict},
		{KindCampaignChanged, http.StatusConflict},
		{KindCampaignClosed, http.StatusGone},
		{KindCampaignEnded, http.StatusGone},
		{KindForbidden, http.StatusForbidden},
		{KindPaymentProviderNotConfigured, http.StatusServiceUnavailable},
		{KindRefundFailed, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("reserve: %w", PositionUnavailable())
	if got := KindOf(err); got != KindPositionUnavailable {
		t.Fatalf("KindOf = %q, want %q", got, KindPositionUnavailable)
	}
	if !Is(err, KindPositionUnavailable) {
		t.Fatal("Is should see through fmt wrapping")
	}
	if Message(err) != "this spot was just taken, please pick another" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestKindOfUntyped(t *testing.T) {
	if got := KindOf(errors.New("connection reset")); got != "" {
		t.Fatalf("KindOf(untyped) = %q, want empty", got)
	}
	if Message(errors.New("boom")) != "internal error" {
		t.Fatal("untyped errors must not leak their message")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("card_declined")
	err := Wrap(KindRefundFailed, cause, "refund failed")
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause should be reachable")
	}
	if !err.Kind.Critical() {
		t.Fatal("refund failures are critical")
	}
	if KindPositionUnavailable.Critical() {
		t.Fatal("position races are not critical")
	}
}
