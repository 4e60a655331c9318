package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

type StripeProvider struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

// NewStripeProvider returns a provider for the given credentials. Without a
// secret key every call fails with ErrNotConfigured.
func NewStripeProvider(secretKey, webhookSecret string, log *zap.Logger) *StripeProvider {
	p := &StripeProvider{webhookSecret: webhookSecret, log: log}
	if secretKey != "" {
		p.api = &client.API{}
		p.api.Init(secretKey, nil)
	}
	return p
}

func (p *StripeProvider) Name() string { return "stripe" }

func (p *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	minor, err := ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidRequest, err, "amount cannot be charged in this currency")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	p.log.Info("payment intent created",
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount_minor", pi.Amount),
		zap.String("currency", string(pi.Currency)),
	)
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       FromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:     string(pi.Currency),
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.AddMetadata("failure_reason", req.Reason)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	r, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund %s: %w", req.PaymentIntentID, err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status)}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindWebhookVerificationFailed, err, "webhook signature verification failed")
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || ev.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidRequest, err, "malformed payment intent payload")
	}
	out.PaymentIntentID = pi.ID
	out.Currency = string(pi.Currency)
	out.Amount = FromMinorUnits(pi.Amount, out.Currency)
	out.Metadata = pi.Metadata
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}
