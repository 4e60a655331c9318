package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"go.uber.org/zap"
)

type SponsorshipService struct {
	campaigns    repositories.CampaignRepository
	sponsorships repositories.SponsorshipRepository
	layouts      *LayoutService
	publisher    events.Publisher
	log          *zap.Logger
	now          func() time.Time
}

func NewSponsorshipService(
	store repositories.Store,
	layouts *LayoutService,
	publisher events.Publisher,
	log *zap.Logger,
) *SponsorshipService {
	return &SponsorshipService{
		campaigns:    store.Campaigns,
		sponsorships: store.Sponsorships,
		layouts:      layouts,
		publisher:    publisher,
		log:          log,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for the campaign end date check.
func (s *SponsorshipService) WithClock(now func() time.Time) *SponsorshipService {
	s.now = now
	return s
}

type SponsorshipInput struct {
	CampaignID    uuid.UUID
	PositionID    *string
	SponsorName   string
	SponsorEmail  string
	SponsorPhone  *string
	Message       *string
	SponsorType   string
	LogoURL       *string
	Amount        decimal.Decimal
	PaymentMethod string
	// Currency is the currency the sponsor paid in. Empty means the
	// campaign's own currency.
	Currency string
}

func (in *SponsorshipInput) validate() error {
	in.SponsorName = strings.TrimSpace(in.SponsorName)
	in.SponsorEmail = strings.TrimSpace(in.SponsorEmail)
	if in.SponsorName == "" {
		return apperr.InvalidRequest("sponsor_name is required")
	}
	if _, err := mail.ParseAddress(in.SponsorEmail); err != nil {
		return apperr.InvalidRequest("sponsor_email is not a valid email address")
	}
	if !models.IsValidSponsorType(in.SponsorType) {
		return apperr.InvalidRequest("sponsor_type must be text or logo")
	}
	if in.SponsorType == models.SponsorTypeLogo && (in.LogoURL == nil || *in.LogoURL == "") {
		return apperr.InvalidRequest("logo_url is required for logo sponsors")
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return apperr.InvalidRequest("unknown payment_method %q", in.PaymentMethod)
	}
	if in.Amount.Sign() <= 0 {
		return apperr.InvalidRequest("amount must be greater than 0")
	}
	return nil
}

// slot is where a sponsorship lands once its price has been checked.
type slot struct {
	layout     *models.Layout // nil when the campaign has no layout
	placement  *models.Placement
	positionID *string
}

// Create records an offline sponsorship. Card sponsorships only enter
// through the payment webhook.
func (s *SponsorshipService) Create(ctx context.Context, in SponsorshipInput) (*models.Sponsorship, error) {
	if in.PaymentMethod == models.PaymentMethodCard {
		return nil, apperr.New(apperr.KindPaymentMethodNotAllowed, "card sponsorships are created after payment confirmation")
	}
	return s.reserve(ctx, in, nil)
}

// loadOpenCampaign loads the campaign, checks it still accepts sponsors and
// validates the submission against it. Callers must not reuse a campaign
// loaded earlier in the request.
func (s *SponsorshipService) loadOpenCampaign(ctx context.Context, in *SponsorshipInput) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, in.CampaignID)
	if err != nil {
		return nil, campaignErr(err)
	}
	if err := campaign.CheckOpen(s.now()); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !campaign.AcceptsMethod(in.PaymentMethod) {
		return nil, apperr.Newf(apperr.KindPaymentMethodNotAllowed, "campaign does not accept %s payments", in.PaymentMethod)
	}
	return campaign, nil
}

// resolveSlot checks the submitted amount against the server-side price and
// returns where the sponsorship goes.
func (s *SponsorshipService) resolveSlot(ctx context.Context, campaign *models.Campaign, in SponsorshipInput) (*slot, error) {
	l, err := s.layouts.GetLayout(ctx, campaign.ID)
	if err != nil && !apperr.Is(err, apperr.KindLayoutNotFound) {
		return nil, err
	}
	out := &slot{layout: l}

	if campaign.CampaignType.UsesPositions() && l != nil && l.IsGrid() {
		if in.PositionID == nil || *in.PositionID == "" {
			return nil, apperr.InvalidRequest("position_id is required for grid layouts")
		}
		p, ok := l.Placement(*in.PositionID)
		if !ok {
			return nil, apperr.PositionNotFound(*in.PositionID)
		}
		if !in.Amount.Equal(p.Price) {
			return nil, apperr.Newf(apperr.KindAmountMismatch, "amount %s does not match the position price %s", in.Amount, p.Price)
		}
		out.placement = p
		out.positionID = &p.PositionID
		return out, nil
	}

	switch cfg := campaign.PricingConfig.(type) {
	case pricing.FixedConfig:
		if !in.Amount.Equal(cfg.FixedPrice) {
			return nil, apperr.Newf(apperr.KindAmountMismatch, "amount %s does not match the price %s", in.Amount, cfg.FixedPrice)
		}
	case pricing.PositionalConfig:
		return nil, apperr.InvalidRequest("positional campaigns need a grid layout")
	case pricing.PayWhatYouWantConfig:
		if err := pricing.CheckDonation(cfg, in.Amount); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.InvalidPricing("campaign has no pricing config")
	}

	if l != nil && l.MaxSponsors > 0 {
		n, err := s.sponsorships.CountByCampaign(ctx, campaign.ID)
		if err != nil {
			return nil, fmt.Errorf("count sponsorships: %w", err)
		}
		if n >= l.MaxSponsors {
			return nil, apperr.New(apperr.KindSponsorLimitReached, "campaign has reached its sponsor limit")
		}
	}
	return out, nil
}

// reserve runs the whole reservation protocol: campaign checks, price
// check, atomic claim, pending entry, and release if the entry cannot be
// stored.
func (s *SponsorshipService) reserve(ctx context.Context, in SponsorshipInput, paymentIntentID *string) (*models.Sponsorship, error) {
	campaign, err := s.loadOpenCampaign(ctx, &in)
	if err != nil {
		return nil, err
	}
	if in.Currency != "" && !strings.EqualFold(in.Currency, campaign.Currency) {
		return nil, apperr.Newf(apperr.KindAmountMismatch,
			"paid in %s but the campaign is priced in %s", strings.ToLower(in.Currency), campaign.Currency)
	}
	target, err := s.resolveSlot(ctx, campaign, in)
	if err != nil {
		return nil, err
	}

	entry := &models.Sponsorship{
		ID:              uuid.New(),
		CampaignID:      campaign.ID,
		PositionID:      target.positionID,
		SponsorName:     in.SponsorName,
		SponsorEmail:    in.SponsorEmail,
		SponsorPhone:    in.SponsorPhone,
		Message:         in.Message,
		SponsorType:     in.SponsorType,
		LogoURL:         in.LogoURL,
		Amount:          in.Amount,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentIntentID: paymentIntentID,
	}
	applyTier(entry, pricing.TiersFor(campaign.PricingConfig))

	create := func(ctx context.Context) error {
		if err := s.sponsorships.Create(ctx, entry); err != nil {
			return fmt.Errorf("create sponsorship: %w", err)
		}
		return nil
	}
	if target.positionID != nil {
		err = s.layouts.WithReservation(ctx, target.layout, *target.positionID, entry.ID, create)
	} else {
		err = create(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("sponsorship created",
		zap.String("sponsorship_id", entry.ID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Stringp("position_id", entry.PositionID),
		zap.String("payment_method", entry.PaymentMethod),
	)
	s.publish(ctx, events.EventSponsorshipCreated, entry)
	return entry, nil
}

func applyTier(entry *models.Sponsorship, tiers []pricing.SizeTier) {
	tier, ok := pricing.ClassifyTier(entry.Amount, tiers)
	if !ok {
		return
	}
	entry.DisplaySize = tier.Size
	if entry.SponsorType == models.SponsorTypeLogo {
		w := tier.LogoWidth
		entry.LogoWidth = &w
		return
	}
	fs := tier.FontSize
	entry.FontSize = &fs
}

// MarkPaid confirms an offline sponsorship on behalf of the organizer.
func (s *SponsorshipService) MarkPaid(ctx context.Context, sponsorshipID, organizerID uuid.UUID) (*models.Sponsorship, error) {
	entry, err := s.get(ctx, sponsorshipID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCampaign(ctx, entry.CampaignID, organizerID); err != nil {
		return nil, err
	}
	if !models.IsOfflineMethod(entry.PaymentMethod) {
		return nil, apperr.New(apperr.KindInvalidStatusTransition, "card sponsorships are confirmed by the payment provider")
	}
	if !models.IsValidTransition(entry.PaymentStatus, models.PaymentStatusPaid) {
		return nil, apperr.Newf(apperr.KindInvalidStatusTransition, "cannot mark a %s sponsorship as paid", entry.PaymentStatus)
	}
	if err := s.markPaid(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// markPaid moves a pending entry to paid with a conditional update.
func (s *SponsorshipService) markPaid(ctx context.Context, entry *models.Sponsorship) error {
	paidAt := s.now().UTC()
	changed, err := s.sponsorships.MarkPaid(ctx, entry.ID, paidAt)
	if err != nil {
		return fmt.Errorf("mark sponsorship paid: %w", err)
	}
	if !changed {
		return apperr.New(apperr.KindInvalidStatusTransition, "sponsorship is no longer pending")
	}
	entry.PaymentStatus = models.PaymentStatusPaid
	entry.PaidAt = &paidAt

	s.log.Info("sponsorship paid",
		zap.String("sponsorship_id", entry.ID.String()),
		zap.String("payment_method", entry.PaymentMethod),
	)
	s.publish(ctx, events.EventSponsorshipPaid, entry)
	return nil
}

func (s *SponsorshipService) Get(ctx context.Context, sponsorshipID, organizerID uuid.UUID) (*models.Sponsorship, error) {
	entry, err := s.get(ctx, sponsorshipID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCampaign(ctx, entry.CampaignID, organizerID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SponsorshipService) List(ctx context.Context, organizerID uuid.UUID, f repositories.SponsorshipFilter) ([]models.Sponsorship, error) {
	if _, err := s.ownedCampaign(ctx, f.CampaignID, organizerID); err != nil {
		return nil, err
	}
	return s.sponsorships.List(ctx, f)
}

// ListPaid returns the sponsors shown on a public campaign wall.
func (s *SponsorshipService) ListPaid(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Sponsorship, error) {
	status := models.PaymentStatusPaid
	return s.sponsorships.List(ctx, repositories.SponsorshipFilter{
		CampaignID: campaignID,
		Status:     &status,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *SponsorshipService) get(ctx context.Context, id uuid.UUID) (*models.Sponsorship, error) {
	entry, err := s.sponsorships.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.New(apperr.KindSponsorshipNotFound, "sponsorship not found")
		}
		return nil, fmt.Errorf("get sponsorship: %w", err)
	}
	return entry, nil
}

func (s *SponsorshipService) ownedCampaign(ctx context.Context, campaignID, organizerID uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, campaignErr(err)
	}
	if campaign.OrganizerID != organizerID {
		return nil, apperr.New(apperr.KindForbidden, "campaign belongs to another organizer")
	}
	return campaign, nil
}

func (s *SponsorshipService) publish(ctx context.Context, eventType string, entry *models.Sponsorship) {
	payload := map[string]any{
		"sponsorship_id": entry.ID.String(),
		"sponsor_name":   entry.SponsorName,
		"sponsor_email":  entry.SponsorEmail,
		"amount":         entry.Amount.String(),
		"payment_method": entry.PaymentMethod,
		"payment_status": entry.PaymentStatus,
	}
	if entry.PositionID != nil {
		payload["position_id"] = *entry.PositionID
	}
	err := s.publisher.Publish(ctx, events.StreamSponsorship, events.Event{
		Type:       eventType,
		CampaignID: entry.CampaignID,
		Payload:    payload,
	})
	if err != nil {
		s.log.Warn("failed to publish sponsorship event", zap.String("type", eventType), zap.Error(err))
	}
}
