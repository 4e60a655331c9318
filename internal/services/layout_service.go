package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/layout"
	"github.com/sponsorwall/backend/internal/metrics"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"go.uber.org/zap"
)

// LayoutService is the only writer of placement occupancy.
type LayoutService struct {
	campaigns    repositories.CampaignRepository
	layouts      repositories.LayoutRepository
	sponsorships repositories.SponsorshipRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	log          *zap.Logger
}

func NewLayoutService(
	store repositories.Store,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *LayoutService {
	return &LayoutService{
		campaigns:    store.Campaigns,
		layouts:      store.Layouts,
		sponsorships: store.Sponsorships,
		publisher:    publisher,
		metrics:      m,
		log:          log,
	}
}

type LayoutInput struct {
	LayoutType     string
	TotalPositions int
	Columns        int
	MaxSponsors    int
}

func (s *LayoutService) CreateLayout(ctx context.Context, campaignID uuid.UUID, in LayoutInput) (*models.Layout, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, campaignErr(err)
	}
	if err := s.ensureNoSponsors(ctx, campaignID); err != nil {
		return nil, err
	}

	l := &models.Layout{CampaignID: campaignID, LayoutType: in.LayoutType}
	switch in.LayoutType {
	case models.LayoutTypeGrid:
		if !campaign.CampaignType.UsesPositions() {
			return nil, apperr.InvalidRequest("%s campaigns cannot use a grid layout", campaign.CampaignType)
		}
		d := layout.Dimensions{TotalPositions: in.TotalPositions, Columns: in.Columns}
		placements, err := layout.BuildPlacements(d, campaign.PricingConfig)
		if err != nil {
			return nil, err
		}
		l.TotalPositions = d.TotalPositions
		l.Columns = d.Columns
		l.Placements = placements
	case models.LayoutTypeFlexible:
		if campaign.CampaignType == pricing.TypePositional {
			return nil, apperr.InvalidRequest("positional campaigns need a grid layout")
		}
		if in.MaxSponsors < 0 {
			return nil, apperr.InvalidRequest("max_sponsors must not be negative")
		}
		l.MaxSponsors = in.MaxSponsors
	default:
		return nil, apperr.InvalidRequest("layout_type must be grid or flexible")
	}

	if err := s.layouts.Create(ctx, l, campaign.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, apperr.New(apperr.KindLayoutAlreadyExists, "campaign already has a layout")
		}
		return nil, lockedWriteErr("create layout", err)
	}

	s.log.Info("layout created",
		zap.String("campaign_id", campaignID.String()),
		zap.String("layout_type", l.LayoutType),
		zap.Int("positions", len(l.Placements)),
	)
	return l, nil
}

func (s *LayoutService) GetLayout(ctx context.Context, campaignID uuid.UUID) (*models.Layout, error) {
	l, err := s.layouts.GetByCampaignID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.LayoutNotFound()
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return l, nil
}

// ReservePosition claims a free position for sponsorshipID in one
// conditional update.
func (s *LayoutService) ReservePosition(ctx context.Context, layoutID uuid.UUID, positionID string, sponsorshipID uuid.UUID) error {
	err := s.layouts.Reserve(ctx, layoutID, positionID, sponsorshipID)
	switch {
	case err == nil:
		s.metrics.IncReservation(metrics.OutcomeReserved)
		return nil
	case errors.Is(err, repositories.ErrConflict):
		s.metrics.IncReservation(metrics.OutcomeConflict)
		return apperr.PositionUnavailable()
	case errors.Is(err, repositories.ErrNotFound):
		s.metrics.IncReservation(metrics.OutcomeNotFound)
		return apperr.PositionNotFound(positionID)
	default:
		s.metrics.IncReservation(metrics.OutcomeError)
		return fmt.Errorf("reserve %s: %w", positionID, err)
	}
}

// ReleasePosition frees a position. Releasing a free position succeeds.
func (s *LayoutService) ReleasePosition(ctx context.Context, layoutID uuid.UUID, positionID string) error {
	if err := s.layouts.Release(ctx, layoutID, positionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.PositionNotFound(positionID)
		}
		return fmt.Errorf("release %s: %w", positionID, err)
	}
	return nil
}

// WithReservation reserves positionID, runs fn, and releases the position
// again if fn returns an error or panics. The error of fn is returned
// unchanged; a failed release is logged, never returned in its place.
func (s *LayoutService) WithReservation(
	ctx context.Context,
	l *models.Layout,
	positionID string,
	sponsorshipID uuid.UUID,
	fn func(ctx context.Context) error,
) (err error) {
	if err := s.ReservePosition(ctx, l.ID, positionID, sponsorshipID); err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// release even when the request context is already cancelled
		releaseCtx := context.WithoutCancel(ctx)
		if relErr := s.ReleasePosition(releaseCtx, l.ID, positionID); relErr != nil {
			s.metrics.IncCompensation(false)
			s.log.Error("failed to release position after failed sponsorship",
				zap.String("campaign_id", l.CampaignID.String()),
				zap.String("position_id", positionID),
				zap.String("sponsorship_id", sponsorshipID.String()),
				zap.Error(relErr),
			)
			return
		}
		s.metrics.IncCompensation(true)
		s.log.Warn("position released after failed sponsorship",
			zap.String("campaign_id", l.CampaignID.String()),
			zap.String("position_id", positionID),
			zap.NamedError("cause", err),
		)
		s.publish(releaseCtx, events.EventPositionReleased, l.CampaignID, positionID)
	}()

	if err = fn(ctx); err != nil {
		return err
	}
	committed = true
	s.publish(ctx, events.EventPositionReserved, l.CampaignID, positionID)
	return nil
}

// IsPositionAvailable is a read-only check. It is not authoritative; only
// ReservePosition decides who gets a position.
func (s *LayoutService) IsPositionAvailable(ctx context.Context, l *models.Layout, positionID string) (bool, error) {
	p, err := s.layouts.GetPlacement(ctx, l.ID, positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperr.PositionNotFound(positionID)
		}
		return false, fmt.Errorf("get placement: %w", err)
	}
	return !p.IsTaken, nil
}

// RecalculatePrices re-derives every placement price from cfg. It is only
// allowed while the campaign has no sponsorships.
func (s *LayoutService) RecalculatePrices(ctx context.Context, campaignID uuid.UUID, cfg pricing.Config) error {
	if err := s.ensureNoSponsors(ctx, campaignID); err != nil {
		return err
	}
	l, err := s.GetLayout(ctx, campaignID)
	if err != nil {
		return err
	}
	if !l.IsGrid() {
		return nil
	}

	placements, err := repricedPlacements(l, cfg)
	if err != nil {
		return err
	}
	if err := s.layouts.UpdatePrices(ctx, l.ID, placements); err != nil {
		return lockedWriteErr("update prices", err)
	}
	l.Placements = placements

	s.log.Info("layout prices recalculated",
		zap.String("campaign_id", campaignID.String()),
		zap.Int("positions", len(l.Placements)),
	)
	return nil
}

// repricedPlacements returns a copy of the grid placements priced by cfg.
func repricedPlacements(l *models.Layout, cfg pricing.Config) ([]models.Placement, error) {
	placements := slices.Clone(l.Placements)
	d := layout.Dimensions{TotalPositions: l.TotalPositions, Columns: l.Columns}
	if err := layout.Reprice(placements, d, cfg); err != nil {
		return nil, err
	}
	return placements, nil
}

// ClearLayout frees every position of the campaign's layout.
func (s *LayoutService) ClearLayout(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	l, err := s.GetLayout(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	n, err := s.layouts.ClearAll(ctx, l.ID)
	if err != nil {
		return 0, fmt.Errorf("clear layout: %w", err)
	}
	s.log.Warn("layout cleared",
		zap.String("campaign_id", campaignID.String()),
		zap.Int64("released", n),
	)
	return n, nil
}

// lockedWriteErr maps the errors of writes that storage refuses once a
// campaign has sponsorships.
func lockedWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrSponsorsExist):
		return apperr.SponsorsExist()
	case errors.Is(err, repositories.ErrStale):
		return apperr.CampaignChanged()
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ensureNoSponsors fails fast before a locked write. The write itself
// repeats the check in its transaction.
func (s *LayoutService) ensureNoSponsors(ctx context.Context, campaignID uuid.UUID) error {
	n, err := s.sponsorships.CountByCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("count sponsorships: %w", err)
	}
	if n > 0 {
		return apperr.SponsorsExist()
	}
	return nil
}

func (s *LayoutService) publish(ctx context.Context, eventType string, campaignID uuid.UUID, positionID string) {
	err := s.publisher.Publish(ctx, events.StreamLayout, events.Event{
		Type:       eventType,
		CampaignID: campaignID,
		Payload:    map[string]any{"position_id": positionID},
	})
	if err != nil {
		s.log.Warn("failed to publish layout event", zap.String("type", eventType), zap.Error(err))
	}
}

func campaignErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.CampaignNotFound()
	}
	return fmt.Errorf("get campaign: %w", err)
}
