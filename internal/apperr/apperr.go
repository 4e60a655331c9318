// Package apperr defines the typed failures returned by the sponsorship core.
// Every expected, caller-recoverable condition carries a Kind; anything
// without a Kind is an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidRequest               Kind = "invalid_request"
	KindInvalidPricingConfig         Kind = "invalid_pricing_config"
	KindCampaignNotFound             Kind = "campaign_not_found"
	KindLayoutNotFound               Kind = "layout_not_found"
	KindPositionNotFound             Kind = "position_not_found"
	KindSponsorshipNotFound          Kind = "sponsorship_not_found"
	KindCampaignClosed               Kind = "campaign_closed"
	KindCampaignEnded                Kind = "campaign_ended"
	KindAmountMismatch               Kind = "amount_mismatch"
	KindAmountBelowMinimum           Kind = "amount_below_minimum"
	KindPositionUnavailable          Kind = "position_unavailable"
	KindLayoutAlreadyExists          Kind = "layout_already_exists"
	KindSponsorsExist                Kind = "sponsors_exist"
	KindAlreadyClosed                Kind = "already_closed"
	KindNoPaymentMethodEnabled       Kind = "no_payment_method_enabled"
	KindPaymentProviderNotConfigured Kind = "payment_provider_not_configured"
	KindPaymentMethodNotAllowed      Kind = "payment_method_not_allowed"
	KindInvalidStatusTransition      Kind = "invalid_status_transition"
	KindSponsorLimitReached          Kind = "sponsor_limit_reached"
	KindWebhookVerificationFailed    Kind = "webhook_verification_failed"
	KindRefundFailed                 Kind = "refund_failed"
	KindForbidden                    Kind = "forbidden"
	KindCampaignChanged              Kind = "campaign_changed"
)

// HTTPStatus maps a kind to the status code the API layer answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindCampaignNotFound, KindLayoutNotFound, KindPositionNotFound, KindSponsorshipNotFound:
		return http.StatusNotFound
	case KindInvalidRequest, KindInvalidPricingConfig, KindAmountMismatch, KindAmountBelowMinimum,
		KindNoPaymentMethodEnabled, KindPaymentMethodNotAllowed, KindWebhookVerificationFailed:
		return http.StatusBadRequest
	case KindPositionUnavailable, KindLayoutAlreadyExists, KindSponsorsExist, KindAlreadyClosed,
		KindInvalidStatusTransition, KindSponsorLimitReached, KindCampaignChanged:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindCampaignClosed, KindCampaignEnded:
		return http.StatusGone
	case KindPaymentProviderNotConfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Critical reports whether the kind needs operator intervention.
func (k Kind) Critical() bool {
	return k == KindRefundFailed
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when the
// error is untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the user-facing message of a typed error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func CampaignNotFound() *Error {
	return New(KindCampaignNotFound, "campaign not found")
}

func LayoutNotFound() *Error {
	return New(KindLayoutNotFound, "layout not found")
}

func PositionNotFound(positionID string) *Error {
	return Newf(KindPositionNotFound, "position %s not found", positionID)
}

func PositionUnavailable() *Error {
	return New(KindPositionUnavailable, "this spot was just taken, please pick another")
}

func SponsorsExist() *Error {
	return New(KindSponsorsExist, "pricing and layout cannot change once sponsorships exist")
}

func CampaignChanged() *Error {
	return New(KindCampaignChanged, "campaign changed while saving, reload and try again")
}

func InvalidPricing(format string, args ...any) *Error {
	return Newf(KindInvalidPricingConfig, format, args...)
}

func InvalidRequest(format string, args ...any) *Error {
	return Newf(KindInvalidRequest, format, args...)
}
