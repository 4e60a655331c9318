package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/models"
	"go.uber.org/zap"
)

// NotifyClient posts notifications to the email delivery service.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewNotifyClient(baseURL string, log *zap.Logger) *NotifyClient {
	return &NotifyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Audience of a notification.
const (
	AudienceSponsor   = "sponsor"
	AudienceOrganizer = "organizer"
	AudienceOperator  = "operator"
)

type Notification struct {
	Template   string         `json:"template"`
	Audience   string         `json:"audience"`
	CampaignID string         `json:"campaign_id"`
	Email      string         `json:"email,omitempty"`
	Urgent     bool           `json:"urgent,omitempty"`
	Data       map[string]any `json:"data"`
}

// NotificationFor maps a sponsorship event to the notification it triggers.
// ok is false for events nobody is told about.
func NotificationFor(event events.Event) (n Notification, ok bool) {
	email, _ := event.Payload["sponsor_email"].(string)
	n = Notification{
		Template:   event.Type,
		CampaignID: event.CampaignID.String(),
		Email:      email,
		Data:       event.Payload,
	}
	switch event.Type {
	case events.EventSponsorshipCreated:
		// card entries are confirmed by the paid notification right after
		if method, _ := event.Payload["payment_method"].(string); method == models.PaymentMethodCard {
			return Notification{}, false
		}
		n.Audience = AudienceSponsor
	case events.EventSponsorshipPaid, events.EventRefundIssued:
		n.Audience = AudienceSponsor
	case events.EventRefundFailed:
		n.Audience = AudienceOperator
		n.Email = ""
		n.Urgent = true
	default:
		return Notification{}, false
	}
	return n, true
}

func (c *NotifyClient) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/notify", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notify service returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// Forward sends the notification for event, if any. Failures are logged.
func (c *NotifyClient) Forward(ctx context.Context, event events.Event) {
	n, ok := NotificationFor(event)
	if !ok {
		return
	}
	if err := c.Send(ctx, n); err != nil {
		c.log.Warn("failed to forward notification",
			zap.String("type", event.Type),
			zap.String("campaign_id", n.CampaignID),
			zap.Error(err),
		)
		return
	}
	c.log.Info("notification forwarded", zap.String("type", event.Type), zap.String("audience", n.Audience))
}
