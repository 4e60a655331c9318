package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	TransactionSucceeded    = "succeeded"
	TransactionFailed       = "failed"
	TransactionRefunded     = "refunded"
	TransactionRefundFailed = "refund_failed"
)

// Transaction is an append-only record of one provider charge outcome.
type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	CampaignID        uuid.UUID       `json:"campaign_id"`
	SponsorshipID     *uuid.UUID      `json:"sponsorship_id,omitempty"`
	Provider          string          `json:"provider"`
	ProviderPaymentID string          `json:"provider_payment_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	FailureReason     *string         `json:"failure_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}
