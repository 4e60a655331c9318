package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/middleware"
	"github.com/sponsorwall/backend/internal/services"
	"go.uber.org/zap"
)

type LayoutHandler struct {
	campaignService *services.CampaignService
	layoutService   *services.LayoutService
	log             *zap.Logger
}

func NewLayoutHandler(campaignService *services.CampaignService, layoutService *services.LayoutService, log *zap.Logger) *LayoutHandler {
	return &LayoutHandler{campaignService: campaignService, layoutService: layoutService, log: log}
}

func (h *LayoutHandler) CreateLayout(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.CreateLayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	ctx := c.UserContext()
	if _, err := h.campaignService.GetOwned(ctx, id, middleware.GetOrganizerID(c)); err != nil {
		return respondError(c, h.log, err)
	}

	l, err := h.layoutService.CreateLayout(ctx, id, services.LayoutInput{
		LayoutType:     req.LayoutType,
		TotalPositions: req.TotalPositions,
		Columns:        req.Columns,
		MaxSponsors:    req.MaxSponsors,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: l})
}

// GetLayout is public; sponsors re-poll it after losing a race for a spot.
func (h *LayoutHandler) GetLayout(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	l, err := h.layoutService.GetLayout(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: l})
}
