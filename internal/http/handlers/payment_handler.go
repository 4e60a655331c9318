package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/middleware"
	"github.com/sponsorwall/backend/internal/services"
	"go.uber.org/zap"
)

const signatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

func (h *PaymentHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	var req dto.SponsorshipRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	intent, err := h.paymentService.CreatePaymentIntent(c.UserContext(), sponsorshipInput(id, req))
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.PaymentIntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	}})
}

// Webhook answers 2xx once an event is settled. Infrastructure failures
// answer 5xx so the provider delivers the event again; a failed refund
// also answers 5xx but its redelivery is a recorded duplicate.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	err := h.paymentService.HandleWebhook(c.UserContext(), payload, c.Get(signatureHeader))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"received": true})
}

func (h *PaymentHandler) ListTransactions(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, "invalid campaign id")
	}

	limit, offset := page(c)
	txs, err := h.paymentService.ListTransactions(c.UserContext(), id, middleware.GetOrganizerID(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}
