package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/pricing"
)

type Campaign struct {
	ID                   uuid.UUID            `json:"id"`
	OrganizerID          uuid.UUID            `json:"organizer_id"`
	Title                string               `json:"title"`
	Slug                 string               `json:"slug"`
	Description          *string              `json:"description,omitempty"`
	CampaignType         pricing.CampaignType `json:"campaign_type"`
	PricingConfig        pricing.Config       `json:"pricing_config"`
	Currency             string               `json:"currency"`
	IsClosed             bool                 `json:"is_closed"`
	EndDate              *time.Time           `json:"end_date,omitempty"`
	EnableStripePayments bool                 `json:"enable_stripe_payments"`
	AllowOfflinePayments bool                 `json:"allow_offline_payments"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// CheckOpen fails when the campaign no longer accepts sponsorships.
func (c *Campaign) CheckOpen(now time.Time) error {
	if c.IsClosed {
		return apperr.New(apperr.KindCampaignClosed, "campaign is closed")
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return apperr.New(apperr.KindCampaignEnded, "campaign has ended")
	}
	return nil
}

func (c *Campaign) HasPaymentMethod() bool {
	return c.EnableStripePayments || c.AllowOfflinePayments
}

// AcceptsMethod reports whether the campaign's payment flags allow method.
func (c *Campaign) AcceptsMethod(method string) bool {
	if method == PaymentMethodCard {
		return c.EnableStripePayments
	}
	return IsOfflineMethod(method) && c.AllowOfflinePayments
}
