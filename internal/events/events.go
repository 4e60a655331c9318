package events

import (
	"context"

	"github.com/google/uuid"
)

// Event types
const (
	EventPositionReserved   = "position_reserved"
	EventPositionReleased   = "position_released"
	EventSponsorshipCreated = "sponsorship_created"
	EventSponsorshipPaid    = "sponsorship_paid"
	EventRefundIssued       = "refund_issued"
	EventRefundFailed       = "refund_failed"
)

// Streams
const (
	StreamLayout      = "events:layout"
	StreamSponsorship = "events:sponsorship"
)

type Event struct {
	Type       string         `json:"type"`
	CampaignID uuid.UUID      `json:"campaign_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops every event. It is used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
