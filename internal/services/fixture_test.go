package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/payments"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"github.com/sponsorwall/backend/internal/repositories/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const validSignature = "t=1,v1=valid"

type fixture struct {
	store     repositories.Store
	layouts   *LayoutService
	entries   *SponsorshipService
	campaigns *CampaignService
	payments  *PaymentService
	provider  *fakeProvider
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	logs      *observer.ObservedLogs
	organizer uuid.UUID
}

type fixtureOption func(*repositories.Store)

func withSponsorships(wrap func(repositories.SponsorshipRepository) repositories.SponsorshipRepository) fixtureOption {
	return func(s *repositories.Store) {
		s.Sponsorships = wrap(s.Sponsorships)
	}
}

func withCampaigns(wrap func(repositories.CampaignRepository) repositories.CampaignRepository) fixtureOption {
	return func(s *repositories.Store) {
		s.Campaigns = wrap(s.Campaigns)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "services.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := db.Store()
	for _, opt := range opts {
		opt(&store)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	f := &fixture{
		store:     store,
		provider:  &fakeProvider{},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
		logs:      logs,
		organizer: uuid.New(),
	}
	f.layouts = NewLayoutService(store, f.publisher, f.metrics, log)
	f.entries = NewSponsorshipService(store, f.layouts, f.publisher, log)
	f.campaigns = NewCampaignService(store, f.layouts, true, log)
	f.payments = NewPaymentService(store, f.entries, f.layouts, f.provider,
		payments.NewRedisEventLedger(rdb, 0), true, f.publisher, f.metrics, log)
	return f
}

func (f *fixture) fixedCampaign(t *testing.T, price int64) *models.Campaign {
	t.Helper()
	c, err := f.campaigns.Create(context.Background(), f.organizer, CampaignInput{
		Title:                "Team Jerseys",
		CampaignType:         pricing.TypeFixed,
		PricingConfig:        pricing.FixedConfig{FixedPrice: decimal.NewFromInt(price)},
		Currency:             "usd",
		EnableStripePayments: true,
		AllowOfflinePayments: true,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) grid(t *testing.T, c *models.Campaign, total, columns int) *models.Layout {
	t.Helper()
	l, err := f.layouts.CreateLayout(context.Background(), c.ID, LayoutInput{
		LayoutType:     models.LayoutTypeGrid,
		TotalPositions: total,
		Columns:        columns,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) placement(t *testing.T, l *models.Layout, positionID string) *models.Placement {
	t.Helper()
	p, err := f.store.Layouts.GetPlacement(context.Background(), l.ID, positionID)
	require.NoError(t, err)
	return p
}

func (f *fixture) deliver(ev payments.Event) error {
	raw, _ := json.Marshal(ev)
	return f.payments.HandleWebhook(context.Background(), raw, validSignature)
}

func offlineInput(c *models.Campaign, positionID string, amount int64) SponsorshipInput {
	in := SponsorshipInput{
		CampaignID:    c.ID,
		SponsorName:   "Acme Bakery",
		SponsorEmail:  "hello@acme.example",
		SponsorType:   models.SponsorTypeText,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: models.PaymentMethodCash,
	}
	if positionID != "" {
		in.PositionID = &positionID
	}
	return in
}

func succeededEvent(c *models.Campaign, eventID, intentID, positionID string, amount int64) payments.Event {
	return payments.Event{
		ID:              eventID,
		Type:            payments.EventPaymentSucceeded,
		PaymentIntentID: intentID,
		Amount:          decimal.NewFromInt(amount),
		Currency:        "usd",
		Metadata: map[string]string{
			metaCampaignID:   c.ID.String(),
			metaPositionID:   positionID,
			metaSponsorName:  "Card Sponsor",
			metaSponsorEmail: "card@sponsor.example",
			metaSponsorType:  models.SponsorTypeText,
		},
	}
}

type fakeProvider struct {
	mu        sync.Mutex
	intents   []payments.IntentRequest
	refunds   []payments.RefundRequest
	refundErr error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents = append(p.intents, req)
	return &payments.Intent{
		ID:           "pi_fake",
		ClientSecret: "pi_fake_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (p *fakeProvider) Refund(_ context.Context, req payments.RefundRequest) (*payments.Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, req)
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &payments.Refund{ID: "re_fake", Status: "succeeded"}, nil
}

func (p *fakeProvider) ParseWebhook(payload []byte, signature string) (*payments.Event, error) {
	if signature != validSignature {
		return nil, apperr.New(apperr.KindWebhookVerificationFailed, "webhook signature verification failed")
	}
	var ev payments.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (p *fakeProvider) refundCalls() []payments.RefundRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payments.RefundRequest(nil), p.refunds...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingSponsorships fails every Create after it has been armed.
type failingSponsorships struct {
	repositories.SponsorshipRepository
	mu    sync.Mutex
	armed bool
}

var errStoreDown = errors.New("sponsorship store unavailable")

func (r *failingSponsorships) arm(v bool) {
	r.mu.Lock()
	r.armed = v
	r.mu.Unlock()
}

func (r *failingSponsorships) Create(ctx context.Context, s *models.Sponsorship) error {
	r.mu.Lock()
	armed := r.armed
	r.mu.Unlock()
	if armed {
		return errStoreDown
	}
	return r.SponsorshipRepository.Create(ctx, s)
}

// lateSponsorships lets a sponsorship land right after the next count
// reports the campaign as empty.
type lateSponsorships struct {
	repositories.SponsorshipRepository
	mu   sync.Mutex
	next *models.Sponsorship
}

func (r *lateSponsorships) after(s *models.Sponsorship) {
	r.mu.Lock()
	r.next = s
	r.mu.Unlock()
}

func (r *lateSponsorships) CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error) {
	n, err := r.SponsorshipRepository.CountByCampaign(ctx, campaignID)
	if err != nil || n > 0 {
		return n, err
	}
	r.mu.Lock()
	s := r.next
	r.next = nil
	r.mu.Unlock()
	if s != nil {
		if err := r.SponsorshipRepository.Create(ctx, s); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func lateOffline(c *models.Campaign, positionID string) *models.Sponsorship {
	return &models.Sponsorship{
		CampaignID:    c.ID,
		PositionID:    &positionID,
		SponsorName:   "Late Sponsor",
		SponsorEmail:  "late@sponsor.example",
		SponsorType:   models.SponsorTypeText,
		Amount:        decimal.NewFromInt(50),
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
		DisplaySize:   "medium",
	}
}

// failingPricing fails every pricing write.
type failingPricing struct {
	repositories.CampaignRepository
}

func (failingPricing) UpdatePricing(context.Context, repositories.PricingUpdate) error {
	return errStoreDown
}
