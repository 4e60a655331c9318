package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/middleware"
	"github.com/sponsorwall/backend/internal/repositories"
	"github.com/sponsorwall/backend/internal/services"
	"go.uber.org/zap"
)

type SponsorshipHandler struct {
	sponsorshipService *services.SponsorshipService
	log                *zap.Logger
}

func NewSponsorshipHandler(sponsorshipService *services.SponsorshipService, log *zap.Logger) *SponsorshipHandler {
	return &SponsorshipHandler{sponsorshipService: sponsorshipService, log: log}
}

func sponsorshipInput(campaignID uuid.UUID, req dto.SponsorshipRequest) services.SponsorshipInput {
	return services.SponsorshipInput{
		CampaignID:    campaignID,
		PositionID:    req.PositionID,
		SponsorName:   req.SponsorName,
		SponsorEmail:  req.SponsorEmail,
		SponsorPhone:  req.SponsorPhone,
		Message:       req.Message,
		SponsorType:   req.SponsorType,
		LogoURL:       req.LogoURL,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	}
}

// CreateSponsorship records an offline sponsorship from the public page.
func (h *SponsorshipHandler) CreateSponsorship(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.SponsorshipRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	entry, err := h.sponsorshipService.Create(c.UserContext(), sponsorshipInput(id, req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *SponsorshipHandler) ListSponsorships(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	limit, offset := page(c)
	filter := repositories.SponsorshipFilter{CampaignID: id, Limit: limit, Offset: offset}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	entries, err := h.sponsorshipService.List(c.UserContext(), middleware.GetOrganizerID(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *SponsorshipHandler) GetSponsorship(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid sponsorship id")
	}

	entry, err := h.sponsorshipService.Get(c.UserContext(), id, middleware.GetOrganizerID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}

func (h *SponsorshipHandler) MarkPaid(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid sponsorship id")
	}

	entry, err := h.sponsorshipService.MarkPaid(c.UserContext(), id, middleware.GetOrganizerID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: entry})
}
