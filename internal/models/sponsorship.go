package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Valid payment status transitions: from -> []to
var ValidSponsorshipTransitions = map[string][]string{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:    {},
	PaymentStatusFailed:  {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidSponsorshipTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// Payment methods
const (
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOther        = "other"
)

func IsOfflineMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

func IsValidPaymentMethod(method string) bool {
	return method == PaymentMethodCard || IsOfflineMethod(method)
}

const (
	SponsorTypeText = "text"
	SponsorTypeLogo = "logo"
)

func IsValidSponsorType(t string) bool {
	return t == SponsorTypeText || t == SponsorTypeLogo
}

type Sponsorship struct {
	ID              uuid.UUID       `json:"id"`
	CampaignID      uuid.UUID       `json:"campaign_id"`
	PositionID      *string         `json:"position_id,omitempty"`
	SponsorName     string          `json:"sponsor_name"`
	SponsorEmail    string          `json:"sponsor_email"`
	SponsorPhone    *string         `json:"sponsor_phone,omitempty"`
	Message         *string         `json:"message,omitempty"`
	SponsorType     string          `json:"sponsor_type"` // text / logo
	LogoURL         *string         `json:"logo_url,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentIntentID *string         `json:"payment_intent_id,omitempty"`
	DisplaySize     string          `json:"display_size"`
	FontSize        *int            `json:"font_size,omitempty"`  // text sponsors
	LogoWidth       *int            `json:"logo_width,omitempty"` // logo sponsors
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
