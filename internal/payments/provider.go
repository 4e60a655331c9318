// Package payments adapts the card payment provider and keeps the ledger
// of webhook events that were already handled.
package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Provider event types the reconciliation flow reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ErrNotConfigured is returned by a provider without credentials.
var ErrNotConfigured = errors.New("payment provider is not configured")

type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	// ParseWebhook verifies the signature over the raw body and decodes the
	// payment intent carried by the event.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
}

type RefundRequest struct {
	PaymentIntentID string
	Reason          string
	IdempotencyKey  string
}

type Refund struct {
	ID     string
	Status string
}

// Event is a verified webhook event reduced to what reconciliation needs.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
	Metadata        map[string]string
	FailureMessage  string
}
