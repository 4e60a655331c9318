package dto

import (
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/models"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type PaymentIntentResponse struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// PublicSponsor is what a campaign wall shows; contact details stay private.
type PublicSponsor struct {
	PositionID  *string         `json:"position_id,omitempty"`
	SponsorName string          `json:"sponsor_name"`
	SponsorType string          `json:"sponsor_type"`
	LogoURL     *string         `json:"logo_url,omitempty"`
	Message     *string         `json:"message,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	DisplaySize string          `json:"display_size"`
	FontSize    *int            `json:"font_size,omitempty"`
	LogoWidth   *int            `json:"logo_width,omitempty"`
}

func NewPublicSponsor(s models.Sponsorship) PublicSponsor {
	return PublicSponsor{
		PositionID:  s.PositionID,
		SponsorName: s.SponsorName,
		SponsorType: s.SponsorType,
		LogoURL:     s.LogoURL,
		Message:     s.Message,
		Amount:      s.Amount,
		DisplaySize: s.DisplaySize,
		FontSize:    s.FontSize,
		LogoWidth:   s.LogoWidth,
	}
}

type PublicCampaignResponse struct {
	Campaign  *models.Campaign `json:"campaign"`
	Layout    *models.Layout   `json:"layout,omitempty"`
	Available *int             `json:"available,omitempty"`
	Sponsors  []PublicSponsor  `json:"sponsors"`
}
