package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/middleware"
	"github.com/sponsorwall/backend/internal/pricing"
	"github.com/sponsorwall/backend/internal/repositories"
	"github.com/sponsorwall/backend/internal/services"
	"go.uber.org/zap"
)

const publicSponsorLimit = 100

type CampaignHandler struct {
	campaignService    *services.CampaignService
	layoutService      *services.LayoutService
	sponsorshipService *services.SponsorshipService
	log                *zap.Logger
}

func NewCampaignHandler(
	campaignService *services.CampaignService,
	layoutService *services.LayoutService,
	sponsorshipService *services.SponsorshipService,
	log *zap.Logger,
) *CampaignHandler {
	return &CampaignHandler{
		campaignService:    campaignService,
		layoutService:      layoutService,
		sponsorshipService: sponsorshipService,
		log:                log,
	}
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	t := pricing.CampaignType(req.CampaignType)
	cfg, err := pricing.DecodeConfig(t, req.PricingConfig)
	if err != nil {
		return respondError(c, h.log, err)
	}

	campaign, err := h.campaignService.Create(c.UserContext(), middleware.GetOrganizerID(c), services.CampaignInput{
		Title:                req.Title,
		Description:          req.Description,
		CampaignType:         t,
		PricingConfig:        cfg,
		Currency:             req.Currency,
		EndDate:              req.EndDate,
		EnableStripePayments: req.EnableStripePayments,
		AllowOfflinePayments: req.AllowOfflinePayments,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	campaign, err := h.campaignService.GetOwned(c.UserContext(), id, middleware.GetOrganizerID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: campaign})
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	limit, offset := page(c)
	filter := repositories.CampaignFilter{Limit: limit, Offset: offset}
	if v := c.Query("closed"); v != "" {
		closed := v == "true"
		filter.IsClosed = &closed
	}

	campaigns, err := h.campaignService.List(c.UserContext(), middleware.GetOrganizerID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: campaigns})
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.UpdateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	updated, err := h.campaignService.Update(c.UserContext(), id, middleware.GetOrganizerID(c), services.CampaignUpdate{
		Title:                req.Title,
		Description:          req.Description,
		Currency:             req.Currency,
		EndDate:              req.EndDate,
		EnableStripePayments: req.EnableStripePayments,
		AllowOfflinePayments: req.AllowOfflinePayments,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

func (h *CampaignHandler) UpdatePricing(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.UpdatePricingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	t := pricing.CampaignType(req.CampaignType)
	cfg, err := pricing.DecodeConfig(t, req.PricingConfig)
	if err != nil {
		return respondError(c, h.log, err)
	}

	updated, err := h.campaignService.UpdatePricing(c.UserContext(), id, middleware.GetOrganizerID(c), t, cfg)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: updated})
}

func (h *CampaignHandler) CloseCampaign(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	if err := h.campaignService.Close(c.UserContext(), id, middleware.GetOrganizerID(c)); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	if err := h.campaignService.Delete(c.UserContext(), id, middleware.GetOrganizerID(c)); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetPublicCampaign serves the sponsor-facing page: campaign, layout and
// paid sponsors.
func (h *CampaignHandler) GetPublicCampaign(c *fiber.Ctx) error {
	ctx := c.UserContext()
	campaign, err := h.campaignService.GetBySlug(ctx, c.Params("slug"))
	if err != nil {
		return respondError(c, h.log, err)
	}

	resp := dto.PublicCampaignResponse{Campaign: campaign, Sponsors: []dto.PublicSponsor{}}

	l, err := h.layoutService.GetLayout(ctx, campaign.ID)
	switch {
	case err == nil:
		resp.Layout = l
		if l.IsGrid() {
			available := l.Available()
			resp.Available = &available
		}
	case !apperr.Is(err, apperr.KindLayoutNotFound):
		return respondError(c, h.log, err)
	}

	paid, err := h.sponsorshipService.ListPaid(ctx, campaign.ID, publicSponsorLimit, 0)
	if err != nil {
		return respondError(c, h.log, err)
	}
	for _, s := range paid {
		resp.Sponsors = append(resp.Sponsors, dto.NewPublicSponsor(s))
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
}
