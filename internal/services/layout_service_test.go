package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLayoutRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.fixedCampaign(t, 50)

	_, err := f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: "spiral"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest), "got %v", err)

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeGrid, TotalPositions: 0, Columns: 5})
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest), "got %v", err)

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeFlexible, MaxSponsors: -1})
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest), "got %v", err)

	l := f.grid(t, c, 7, 3)
	assert.Equal(t, 7, l.TotalPositions)
	assert.Len(t, l.Placements, 7)
	last := l.Placements[len(l.Placements)-1]
	assert.Equal(t, "R3C1", last.PositionID)

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeGrid, TotalPositions: 4, Columns: 2})
	assert.True(t, apperr.Is(err, apperr.KindLayoutAlreadyExists), "got %v", err)

	_, err = f.layouts.CreateLayout(ctx, uuid.New(), LayoutInput{LayoutType: models.LayoutTypeFlexible})
	assert.True(t, apperr.Is(err, apperr.KindCampaignNotFound), "got %v", err)
}

func TestGridNeedsPositionPricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.campaigns.Create(ctx, f.organizer, CampaignInput{
		Title:                "Bake Sale",
		CampaignType:         pricing.TypePayWhatYouWant,
		PricingConfig:        pricing.PayWhatYouWantConfig{MinimumAmount: decimal.NewFromInt(5)},
		AllowOfflinePayments: true,
	})
	require.NoError(t, err)

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeGrid, TotalPositions: 4, Columns: 2})
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest), "got %v", err)

	l, err := f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeFlexible})
	require.NoError(t, err)
	assert.Empty(t, l.Placements)

	require.NoError(t, f.layouts.RecalculatePrices(ctx, c.ID, c.PricingConfig), "flexible layouts have no prices")
}

func TestCreateLayoutLockedOnceSponsored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.fixedCampaign(t, 50)
	_, err := f.entries.Create(ctx, offlineInput(c, "", 50))
	require.NoError(t, err, "fixed campaigns without a layout take unplaced sponsors")

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeGrid, TotalPositions: 4, Columns: 2})
	assert.True(t, apperr.Is(err, apperr.KindSponsorsExist), "got %v", err)
}

func TestCreateLayoutLosesToLateSponsor(t *testing.T) {
	late := &lateSponsorships{}
	f := newFixture(t, withSponsorships(func(r repositories.SponsorshipRepository) repositories.SponsorshipRepository {
		late.SponsorshipRepository = r
		return late
	}))
	ctx := context.Background()
	c := f.fixedCampaign(t, 50)

	late.after(lateOffline(c, "R1C1"))
	_, err := f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeGrid, TotalPositions: 4, Columns: 2})
	assert.True(t, apperr.Is(err, apperr.KindSponsorsExist), "got %v", err)

	_, err = f.layouts.GetLayout(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindLayoutNotFound), "got %v", err)
}

func TestPositionalCampaignRejectsFlexibleLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mult := decimal.NewFromInt(5)
	c, err := f.campaigns.Create(ctx, f.organizer, CampaignInput{
		Title:                "Marathon Shirts",
		CampaignType:         pricing.TypePositional,
		PricingConfig:        pricing.PositionalConfig{PriceMultiplier: &mult},
		Currency:             "usd",
		AllowOfflinePayments: true,
	})
	require.NoError(t, err)

	_, err = f.layouts.CreateLayout(ctx, c.ID, LayoutInput{LayoutType: models.LayoutTypeFlexible})
	assert.True(t, apperr.Is(err, apperr.KindInvalidRequest), "got %v", err)

	l := f.grid(t, c, 4, 2)
	assert.True(t, f.placement(t, l, "R2C2").Price.Equal(decimal.NewFromInt(20)))
}

func TestReserveAndReleasePosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.fixedCampaign(t, 50)
	l := f.grid(t, c, 4, 2)
	owner := uuid.New()

	err := f.layouts.ReservePosition(ctx, l.ID, "R9C9", owner)
	assert.True(t, apperr.Is(err, apperr.KindPositionNotFound), "got %v", err)

	require.NoError(t, f.layouts.ReservePosition(ctx, l.ID, "R1C1", owner))
	err = f.layouts.ReservePosition(ctx, l.ID, "R1C1", uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindPositionUnavailable), "got %v", err)

	free, err := f.layouts.IsPositionAvailable(ctx, l, "R1C1")
	require.NoError(t, err)
	assert.False(t, free)

	require.NoError(t, f.layouts.ReleasePosition(ctx, l.ID, "R1C1"))
	require.NoError(t, f.layouts.ReleasePosition(ctx, l.ID, "R1C1"))

	free, err = f.layouts.IsPositionAvailable(ctx, l, "R1C1")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = f.layouts.IsPositionAvailable(ctx, l, "R3C1")
	assert.True(t, apperr.Is(err, apperr.KindPositionNotFound), "got %v", err)
}

func TestClearLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.fixedCampaign(t, 50)
	l := f.grid(t, c, 4, 2)

	require.NoError(t, f.layouts.ReservePosition(ctx, l.ID, "R1C1", uuid.New()))
	require.NoError(t, f.layouts.ReservePosition(ctx, l.ID, "R2C2", uuid.New()))

	n, err := f.layouts.ClearLayout(ctx, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := f.layouts.GetLayout(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Available())

	other := f.fixedCampaign(t, 50)
	_, err = f.layouts.ClearLayout(ctx, other.ID)
	assert.True(t, apperr.Is(err, apperr.KindLayoutNotFound), "got %v", err)
}
