// Package repositories declares the storage contracts of the sponsorship
// core. Implementations live in the postgres and sqlite subpackages.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
	// ErrSponsorsExist is returned by writes that are locked once a campaign
	// has a sponsorship. The check runs inside the write's transaction.
	ErrSponsorsExist = errors.New("campaign has sponsorships")
	// ErrStale means the campaign changed after the caller read it.
	ErrStale = errors.New("campaign changed concurrently")
)

// PricingUpdate replaces a campaign's pricing together with the prices of
// its grid placements.
type PricingUpdate struct {
	CampaignID   uuid.UUID
	CampaignType pricing.CampaignType
	Config       pricing.Config
	// LayoutID is the layout the placements were computed for, nil when the
	// campaign had no layout. A different layout at write time is ErrStale.
	LayoutID   *uuid.UUID
	Placements []models.Placement
}

type CampaignFilter struct {
	OrganizerID *uuid.UUID
	IsClosed    *bool
	Limit       int
	Offset      int
}

type SponsorshipFilter struct {
	CampaignID uuid.UUID
	Status     *string
	Limit      int
	Offset     int
}

// ClampLimit applies the default page size of 20 and the maximum of 100.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

type CampaignRepository interface {
	// Create fails with ErrConflict when the slug is taken.
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*models.Campaign, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error)
	// Update writes title, description, currency, end date and payment flags.
	// A currency change fails with ErrSponsorsExist.
	Update(ctx context.Context, c *models.Campaign) error
	// UpdatePricing writes the config and every placement price in one
	// transaction. It fails with ErrSponsorsExist, ErrStale or ErrNotFound
	// and then writes nothing.
	UpdatePricing(ctx context.Context, u PricingUpdate) error
	// Close flips is_closed from false to true. It returns false when the
	// campaign was already closed.
	Close(ctx context.Context, id uuid.UUID) (bool, error)
	// Delete fails with ErrSponsorsExist once the campaign has a sponsorship.
	Delete(ctx context.Context, id uuid.UUID) error
}

type LayoutRepository interface {
	// Create stores the layout and its placements. campaignVersion is the
	// updated_at of the campaign the placements were priced from. It fails
	// with ErrConflict when the campaign already has a layout, ErrStale when
	// the campaign changed since and ErrSponsorsExist.
	Create(ctx context.Context, l *models.Layout, campaignVersion time.Time) error
	// GetByCampaignID returns the layout with placements in row-major order.
	GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.Layout, error)
	GetPlacement(ctx context.Context, layoutID uuid.UUID, positionID string) (*models.Placement, error)
	// Reserve is a single conditional update of the occupancy flag. It fails
	// with ErrNotFound for an unknown position and ErrConflict when the
	// position is already taken.
	Reserve(ctx context.Context, layoutID uuid.UUID, positionID string, sponsorshipID uuid.UUID) error
	// Release frees a position. Releasing a free position is not an error.
	Release(ctx context.Context, layoutID uuid.UUID, positionID string) error
	// UpdatePrices writes every placement price in one transaction. It fails
	// with ErrSponsorsExist, or ErrNotFound for an unknown position.
	UpdatePrices(ctx context.Context, layoutID uuid.UUID, placements []models.Placement) error
	// ClearAll frees every position of a layout and returns how many changed.
	ClearAll(ctx context.Context, layoutID uuid.UUID) (int64, error)
}

type SponsorshipRepository interface {
	// Create fails with ErrConflict on a duplicate payment intent id.
	Create(ctx context.Context, s *models.Sponsorship) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sponsorship, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Sponsorship, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID) (int, error)
	List(ctx context.Context, f SponsorshipFilter) ([]models.Sponsorship, error)
	// MarkPaid moves a pending sponsorship to paid. It returns false when the
	// sponsorship was not pending.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, t *models.Transaction) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// Store groups the repositories of one storage backend.
type Store struct {
	Campaigns    CampaignRepository
	Layouts      LayoutRepository
	Sponsorships SponsorshipRepository
	Transactions TransactionRepository
}
