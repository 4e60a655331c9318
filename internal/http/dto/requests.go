package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Campaigns

type CreateCampaignRequest struct {
	Title                string          `json:"title"`
	Description          *string         `json:"description,omitempty"`
	CampaignType         string          `json:"campaign_type"`
	PricingConfig        json.RawMessage `json:"pricing_config"`
	Currency             string          `json:"currency,omitempty"`
	EndDate              *time.Time      `json:"end_date,omitempty"`
	EnableStripePayments bool            `json:"enable_stripe_payments"`
	AllowOfflinePayments bool            `json:"allow_offline_payments"`
}

type UpdateCampaignRequest struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Currency             *string    `json:"currency,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	EnableStripePayments *bool      `json:"enable_stripe_payments,omitempty"`
	AllowOfflinePayments *bool      `json:"allow_offline_payments,omitempty"`
}

type UpdatePricingRequest struct {
	CampaignType  string          `json:"campaign_type"`
	PricingConfig json.RawMessage `json:"pricing_config"`
}

// Layouts

type CreateLayoutRequest struct {
	LayoutType     string `json:"layout_type"`
	TotalPositions int    `json:"total_positions,omitempty"`
	Columns        int    `json:"columns,omitempty"`
	MaxSponsors    int    `json:"max_sponsors,omitempty"`
}

// Sponsorships

// SponsorshipRequest is the public sponsor submission, used both for
// offline sponsorships and for starting a card payment.
type SponsorshipRequest struct {
	PositionID    *string         `json:"position_id,omitempty"`
	SponsorName   string          `json:"sponsor_name"`
	SponsorEmail  string          `json:"sponsor_email"`
	SponsorPhone  *string         `json:"sponsor_phone,omitempty"`
	Message       *string         `json:"message,omitempty"`
	SponsorType   string          `json:"sponsor_type"`
	LogoURL       *string         `json:"logo_url,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}
