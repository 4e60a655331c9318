package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"go.uber.org/zap"
)

const maxSlugAttempts = 50

type CampaignService struct {
	campaigns        repositories.CampaignRepository
	sponsorships     repositories.SponsorshipRepository
	layouts          *LayoutService
	stripeConfigured bool
	log              *zap.Logger
}

func NewCampaignService(
	store repositories.Store,
	layouts *LayoutService,
	stripeConfigured bool,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns:        store.Campaigns,
		sponsorships:     store.Sponsorships,
		layouts:          layouts,
		stripeConfigured: stripeConfigured,
		log:              log,
	}
}

type CampaignInput struct {
	Title                string
	Description          *string
	CampaignType         pricing.CampaignType
	PricingConfig        pricing.Config
	Currency             string
	EndDate              *time.Time
	EnableStripePayments bool
	AllowOfflinePayments bool
}

// CampaignUpdate holds the organizer-editable fields; nil means unchanged.
type CampaignUpdate struct {
	Title                *string
	Description          *string
	Currency             *string
	EndDate              *time.Time
	EnableStripePayments *bool
	AllowOfflinePayments *bool
}

func (s *CampaignService) Create(ctx context.Context, organizerID uuid.UUID, in CampaignInput) (*models.Campaign, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.InvalidRequest("title is required")
	}
	if !in.CampaignType.Valid() {
		return nil, apperr.InvalidRequest("unknown campaign_type %q", in.CampaignType)
	}
	if err := pricing.ValidateFor(in.CampaignType, in.PricingConfig); err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}

	c := &models.Campaign{
		OrganizerID:          organizerID,
		Title:                title,
		Description:          in.Description,
		CampaignType:         in.CampaignType,
		PricingConfig:        in.PricingConfig,
		Currency:             currency,
		EndDate:              in.EndDate,
		EnableStripePayments: in.EnableStripePayments,
		AllowOfflinePayments: in.AllowOfflinePayments,
	}
	if err := s.checkPaymentFlags(c, in.EnableStripePayments); err != nil {
		return nil, err
	}

	base := slug.Make(title)
	if base == "" {
		base = "campaign"
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		c.Slug = base
		if attempt > 1 {
			c.Slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		taken, err := s.campaigns.SlugExists(ctx, c.Slug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			continue
		}
		err = s.campaigns.Create(ctx, c)
		if errors.Is(err, repositories.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create campaign: %w", err)
		}
		s.log.Info("campaign created",
			zap.String("campaign_id", c.ID.String()),
			zap.String("slug", c.Slug),
			zap.String("campaign_type", string(c.CampaignType)),
		)
		return c, nil
	}
	return nil, fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, campaignErr(err)
	}
	return c, nil
}

func (s *CampaignService) GetBySlug(ctx context.Context, slugValue string) (*models.Campaign, error) {
	c, err := s.campaigns.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, campaignErr(err)
	}
	return c, nil
}

// GetOwned returns the campaign when organizerID owns it.
func (s *CampaignService) GetOwned(ctx context.Context, id, organizerID uuid.UUID) (*models.Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OrganizerID != organizerID {
		return nil, apperr.New(apperr.KindForbidden, "campaign belongs to another organizer")
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, organizerID uuid.UUID, f repositories.CampaignFilter) ([]models.Campaign, error) {
	f.OrganizerID = &organizerID
	return s.campaigns.List(ctx, f)
}

func (s *CampaignService) Update(ctx context.Context, id, organizerID uuid.UUID, upd CampaignUpdate) (*models.Campaign, error) {
	c, err := s.GetOwned(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed {
		return nil, apperr.New(apperr.KindCampaignClosed, "closed campaigns cannot be edited")
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperr.InvalidRequest("title must not be empty")
		}
		c.Title = title
	}
	if upd.Description != nil {
		c.Description = upd.Description
	}
	if upd.EndDate != nil {
		c.EndDate = upd.EndDate
	}
	if upd.Currency != nil {
		currency, err := normalizeCurrency(*upd.Currency)
		if err != nil {
			return nil, err
		}
		if currency != c.Currency {
			if err := s.layouts.ensureNoSponsors(ctx, c.ID); err != nil {
				return nil, err
			}
			c.Currency = currency
		}
	}

	enablingStripe := false
	if upd.EnableStripePayments != nil {
		enablingStripe = *upd.EnableStripePayments && !c.EnableStripePayments
		c.EnableStripePayments = *upd.EnableStripePayments
	}
	if upd.AllowOfflinePayments != nil {
		c.AllowOfflinePayments = *upd.AllowOfflinePayments
	}
	if err := s.checkPaymentFlags(c, enablingStripe); err != nil {
		return nil, err
	}

	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, lockedWriteErr("update campaign", err)
	}
	return c, nil
}

// UpdatePricing replaces the pricing config and reprices the grid in one
// write. Both are locked once the campaign has a sponsorship.
func (s *CampaignService) UpdatePricing(ctx context.Context, id, organizerID uuid.UUID, t pricing.CampaignType, cfg pricing.Config) (*models.Campaign, error) {
	c, err := s.GetOwned(ctx, id, organizerID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed {
		return nil, apperr.New(apperr.KindCampaignClosed, "closed campaigns cannot be edited")
	}
	if err := s.layouts.ensureNoSponsors(ctx, c.ID); err != nil {
		return nil, err
	}
	if err := pricing.ValidateFor(t, cfg); err != nil {
		return nil, err
	}

	update := repositories.PricingUpdate{CampaignID: c.ID, CampaignType: t, Config: cfg}
	l, err := s.layouts.GetLayout(ctx, c.ID)
	switch {
	case err == nil:
		if l.IsGrid() && !t.UsesPositions() {
			return nil, apperr.InvalidPricing("%s pricing cannot be used with a grid layout", t)
		}
		if !l.IsGrid() && t == pricing.TypePositional {
			return nil, apperr.InvalidPricing("positional pricing needs a grid layout")
		}
		update.LayoutID = &l.ID
		if l.IsGrid() {
			if update.Placements, err = repricedPlacements(l, cfg); err != nil {
				return nil, err
			}
		}
	case !apperr.Is(err, apperr.KindLayoutNotFound):
		return nil, err
	}

	if err := s.campaigns.UpdatePricing(ctx, update); err != nil {
		return nil, lockedWriteErr("update pricing", err)
	}
	c.CampaignType = t
	c.PricingConfig = cfg

	s.log.Info("campaign pricing updated",
		zap.String("campaign_id", c.ID.String()),
		zap.String("campaign_type", string(t)),
		zap.Int("repriced", len(update.Placements)),
	)
	return c, nil
}

// Close stops a campaign from accepting sponsors. It cannot be undone.
func (s *CampaignService) Close(ctx context.Context, id, organizerID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, id, organizerID); err != nil {
		return err
	}
	closed, err := s.campaigns.Close(ctx, id)
	if err != nil {
		return fmt.Errorf("close campaign: %w", err)
	}
	if !closed {
		return apperr.New(apperr.KindAlreadyClosed, "campaign is already closed")
	}
	s.log.Info("campaign closed", zap.String("campaign_id", id.String()))
	return nil
}

func (s *CampaignService) Delete(ctx context.Context, id, organizerID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, id, organizerID); err != nil {
		return err
	}
	if err := s.layouts.ensureNoSponsors(ctx, id); err != nil {
		return err
	}
	if err := s.campaigns.Delete(ctx, id); err != nil {
		return lockedWriteErr("delete campaign", err)
	}
	s.log.Info("campaign deleted", zap.String("campaign_id", id.String()))
	return nil
}

// checkPaymentFlags enforces that one payment method stays enabled and that
// card payments are only switched on when the provider is configured.
func (s *CampaignService) checkPaymentFlags(c *models.Campaign, enablingStripe bool) error {
	if !c.HasPaymentMethod() {
		return apperr.New(apperr.KindNoPaymentMethodEnabled, "enable card payments or allow offline payments")
	}
	if enablingStripe && !s.stripeConfigured {
		return apperr.New(apperr.KindPaymentProviderNotConfigured, "card payments are not configured on this deployment")
	}
	return nil
}

func normalizeCurrency(currency string) (string, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd", nil
	}
	if len(currency) != 3 {
		return "", apperr.InvalidRequest("currency must be a three-letter ISO code")
	}
	for _, r := range currency {
		if r < 'a' || r > 'z' {
			return "", apperr.InvalidRequest("currency must be a three-letter ISO code")
		}
	}
	return currency, nil
}
