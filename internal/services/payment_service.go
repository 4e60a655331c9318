package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/payments"
	"github.com/sponsorwall/backend/internal/repositories"
	"go.uber.org/zap"
)

// Intent metadata keys. The webhook rebuilds the sponsorship from them.
const (
	metaCampaignID   = "campaign_id"
	metaPositionID   = "position_id"
	metaSponsorName  = "sponsor_name"
	metaSponsorEmail = "sponsor_email"
	metaSponsorPhone = "sponsor_phone"
	metaMessage      = "message"
	metaSponsorType  = "sponsor_type"
	metaLogoURL      = "logo_url"
)

type PaymentService struct {
	sponsorships repositories.SponsorshipRepository
	transactions repositories.TransactionRepository
	entries      *SponsorshipService
	layouts      *LayoutService
	provider     payments.Provider
	ledger       payments.EventLedger
	configured   bool
	publisher    events.Publisher
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewPaymentService(
	store repositories.Store,
	entries *SponsorshipService,
	layouts *LayoutService,
	provider payments.Provider,
	ledger payments.EventLedger,
	configured bool,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		sponsorships: store.Sponsorships,
		transactions: store.Transactions,
		entries:      entries,
		layouts:      layouts,
		provider:     provider,
		ledger:       ledger,
		configured:   configured,
		publisher:    publisher,
		metrics:      m,
		log:          log,
	}
}

// CreatePaymentIntent prices the sponsorship on the server, checks the
// position is still free and starts a card charge. The position is only
// claimed when the provider confirms the payment.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, in SponsorshipInput) (*payments.Intent, error) {
	if !s.configured {
		return nil, apperr.New(apperr.KindPaymentProviderNotConfigured, "card payments are not available")
	}
	in.PaymentMethod = models.PaymentMethodCard

	campaign, err := s.entries.loadOpenCampaign(ctx, &in)
	if err != nil {
		return nil, err
	}
	target, err := s.entries.resolveSlot(ctx, campaign, in)
	if err != nil {
		return nil, err
	}
	if target.placement != nil {
		free, err := s.layouts.IsPositionAvailable(ctx, target.layout, target.placement.PositionID)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, apperr.PositionUnavailable()
		}
	}

	meta := map[string]string{
		metaCampaignID:   campaign.ID.String(),
		metaSponsorName:  in.SponsorName,
		metaSponsorEmail: in.SponsorEmail,
		metaSponsorType:  in.SponsorType,
	}
	setMeta(meta, metaPositionID, target.positionID)
	setMeta(meta, metaSponsorPhone, in.SponsorPhone)
	setMeta(meta, metaMessage, in.Message)
	setMeta(meta, metaLogoURL, in.LogoURL)

	intent, err := s.provider.CreateIntent(ctx, payments.IntentRequest{
		Amount:       in.Amount,
		Currency:     campaign.Currency,
		ReceiptEmail: in.SponsorEmail,
		Metadata:     meta,
	})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return nil, apperr.New(apperr.KindPaymentProviderNotConfigured, "card payments are not available")
		}
		return nil, err
	}
	return intent, nil
}

func setMeta(meta map[string]string, key string, v *string) {
	if v != nil && *v != "" {
		meta[key] = *v
	}
}

// HandleWebhook verifies and applies one provider event. A nil error means
// the event is settled and must not be delivered again.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return apperr.New(apperr.KindPaymentProviderNotConfigured, "payment webhooks are not configured")
		}
		s.log.Warn("webhook rejected", zap.Error(err))
		return err
	}

	if ev.Type != payments.EventPaymentSucceeded && ev.Type != payments.EventPaymentFailed {
		s.metrics.IncWebhookEvent(ev.Type, metrics.OutcomeIgnored)
		return nil
	}

	first, err := s.ledger.MarkProcessed(ctx, ev.ID)
	if err != nil {
		s.metrics.IncWebhookEvent(ev.Type, metrics.OutcomeRetry)
		return err
	}
	if !first {
		s.metrics.IncWebhookEvent(ev.Type, metrics.OutcomeDuplicate)
		s.log.Info("duplicate webhook event ignored", zap.String("event_id", ev.ID))
		return nil
	}

	if ev.Type == payments.EventPaymentSucceeded {
		err = s.handleSucceeded(ctx, ev)
	} else {
		err = s.handleFailed(ctx, ev)
	}

	if err != nil && apperr.KindOf(err) == "" {
		// let the provider's retry run the event again
		if fErr := s.ledger.Forget(context.WithoutCancel(ctx), ev.ID); fErr != nil {
			s.log.Error("failed to forget webhook event", zap.String("event_id", ev.ID), zap.Error(fErr))
		}
		s.metrics.IncWebhookEvent(ev.Type, metrics.OutcomeRetry)
		return err
	}
	s.metrics.IncWebhookEvent(ev.Type, metrics.OutcomeProcessed)
	return err
}

func (s *PaymentService) handleSucceeded(ctx context.Context, ev *payments.Event) error {
	existing, err := s.sponsorships.GetByPaymentIntentID(ctx, ev.PaymentIntentID)
	switch {
	case err == nil:
		return s.finishExisting(ctx, ev, existing)
	case !errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("lookup sponsorship by payment intent: %w", err)
	}

	if _, ok := ev.Metadata[metaCampaignID]; !ok {
		// not an intent created by CreatePaymentIntent
		s.log.Warn("payment without campaign metadata ignored",
			zap.String("event_id", ev.ID),
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("amount", ev.Amount.String()),
			zap.String("currency", ev.Currency),
		)
		return nil
	}

	in, err := inputFromEvent(ev)
	if err != nil {
		return s.refund(ctx, ev, uuid.Nil, err)
	}

	entry, err := s.entries.reserve(ctx, in, &ev.PaymentIntentID)
	if err != nil {
		if apperr.KindOf(err) == "" {
			return err
		}
		s.log.Warn("paid sponsorship could not be reserved",
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("campaign_id", in.CampaignID.String()),
			zap.Error(err),
		)
		return s.refund(ctx, ev, in.CampaignID, err)
	}

	if err := s.entries.markPaid(ctx, entry); err != nil {
		return err
	}
	s.record(ctx, ev, entry.CampaignID, &entry.ID, models.TransactionSucceeded, nil)
	return nil
}

// finishExisting completes a delivery that stored the entry but did not
// get to mark it paid.
func (s *PaymentService) finishExisting(ctx context.Context, ev *payments.Event, entry *models.Sponsorship) error {
	if entry.PaymentStatus != models.PaymentStatusPending {
		return nil
	}
	if err := s.entries.markPaid(ctx, entry); err != nil {
		if apperr.Is(err, apperr.KindInvalidStatusTransition) {
			return nil
		}
		return err
	}
	s.record(ctx, ev, entry.CampaignID, &entry.ID, models.TransactionSucceeded, nil)
	return nil
}

func (s *PaymentService) handleFailed(ctx context.Context, ev *payments.Event) error {
	campaignID, err := uuid.Parse(ev.Metadata[metaCampaignID])
	if err != nil {
		s.log.Warn("failed payment without campaign metadata", zap.String("payment_intent_id", ev.PaymentIntentID))
		return nil
	}
	reason := ev.FailureMessage
	if reason == "" {
		reason = "payment failed"
	}
	s.record(ctx, ev, campaignID, nil, models.TransactionFailed, &reason)
	s.log.Info("card payment failed",
		zap.String("payment_intent_id", ev.PaymentIntentID),
		zap.String("campaign_id", campaignID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// refund returns a captured payment whose sponsorship was rejected. A
// failed refund leaves money captured with nothing delivered; it is
// reported at the highest severity and returned as RefundFailed.
func (s *PaymentService) refund(ctx context.Context, ev *payments.Event, campaignID uuid.UUID, cause error) error {
	reason := string(apperr.KindOf(cause))
	ctx = context.WithoutCancel(ctx)

	r, err := s.provider.Refund(ctx, payments.RefundRequest{
		PaymentIntentID: ev.PaymentIntentID,
		Reason:          reason,
		IdempotencyKey:  "refund-" + ev.PaymentIntentID,
	})
	if err != nil {
		s.metrics.IncRefund(metrics.OutcomeRefundError)
		s.log.DPanic("compensating refund failed, manual intervention required",
			zap.Bool("alert", true),
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("campaign_id", campaignID.String()),
			zap.String("amount", ev.Amount.String()),
			zap.String("currency", ev.Currency),
			zap.String("reason", reason),
			zap.Error(err),
		)
		failure := fmt.Sprintf("%s; refund error: %v", reason, err)
		s.record(ctx, ev, campaignID, nil, models.TransactionRefundFailed, &failure)
		s.publishRefund(ctx, events.EventRefundFailed, ev, campaignID, reason)
		return apperr.Wrap(apperr.KindRefundFailed, err, "refund failed")
	}

	s.metrics.IncRefund(metrics.OutcomeRefunded)
	s.log.Warn("payment refunded",
		zap.String("payment_intent_id", ev.PaymentIntentID),
		zap.String("refund_id", r.ID),
		zap.String("reason", reason),
	)
	s.record(ctx, ev, campaignID, nil, models.TransactionRefunded, &reason)
	s.publishRefund(ctx, events.EventRefundIssued, ev, campaignID, reason)
	return nil
}

// record appends a transaction. Campaign-less events are logged only.
func (s *PaymentService) record(ctx context.Context, ev *payments.Event, campaignID uuid.UUID, sponsorshipID *uuid.UUID, status string, reason *string) {
	if campaignID == uuid.Nil {
		s.log.Warn("transaction without campaign not stored",
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("status", status),
		)
		return
	}
	tx := &models.Transaction{
		CampaignID:        campaignID,
		SponsorshipID:     sponsorshipID,
		Provider:          s.provider.Name(),
		ProviderPaymentID: ev.PaymentIntentID,
		Amount:            ev.Amount,
		Currency:          ev.Currency,
		Status:            status,
		FailureReason:     reason,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		s.log.Error("failed to store transaction",
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (s *PaymentService) publishRefund(ctx context.Context, eventType string, ev *payments.Event, campaignID uuid.UUID, reason string) {
	err := s.publisher.Publish(ctx, events.StreamSponsorship, events.Event{
		Type:       eventType,
		CampaignID: campaignID,
		Payload: map[string]any{
			"payment_intent_id": ev.PaymentIntentID,
			"amount":            ev.Amount.String(),
			"currency":          ev.Currency,
			"reason":            reason,
			"sponsor_email":     ev.Metadata[metaSponsorEmail],
		},
	})
	if err != nil {
		s.log.Warn("failed to publish refund event", zap.String("type", eventType), zap.Error(err))
	}
}

// ListTransactions returns the payment audit trail of a campaign.
func (s *PaymentService) ListTransactions(ctx context.Context, campaignID, organizerID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if _, err := s.entries.ownedCampaign(ctx, campaignID, organizerID); err != nil {
		return nil, err
	}
	return s.transactions.ListByCampaign(ctx, campaignID, limit, offset)
}

func inputFromEvent(ev *payments.Event) (SponsorshipInput, error) {
	campaignID, err := uuid.Parse(ev.Metadata[metaCampaignID])
	if err != nil {
		return SponsorshipInput{}, apperr.InvalidRequest("payment intent has no campaign metadata")
	}
	if ev.Amount.LessThanOrEqual(decimal.Zero) {
		return SponsorshipInput{}, apperr.InvalidRequest("payment intent has no amount")
	}
	in := SponsorshipInput{
		CampaignID:    campaignID,
		SponsorName:   ev.Metadata[metaSponsorName],
		SponsorEmail:  ev.Metadata[metaSponsorEmail],
		SponsorType:   ev.Metadata[metaSponsorType],
		Amount:        ev.Amount,
		PaymentMethod: models.PaymentMethodCard,
		Currency:      ev.Currency,
	}
	in.PositionID = metaPtr(ev.Metadata, metaPositionID)
	in.SponsorPhone = metaPtr(ev.Metadata, metaSponsorPhone)
	in.Message = metaPtr(ev.Metadata, metaMessage)
	in.LogoURL = metaPtr(ev.Metadata, metaLogoURL)
	return in, nil
}

func metaPtr(meta map[string]string, key string) *string {
	if v, ok := meta[key]; ok && v != "" {
		return &v
	}
	return nil
}
