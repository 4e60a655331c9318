package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/models"
	"github.com/sponsorwall/backend/internal/pricing"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var campaignTypes = []MetaOption{
	{ID: string(pricing.TypeFixed), Label: "Fixed price"},
	{ID: string(pricing.TypePositional), Label: "Priced by position"},
	{ID: string(pricing.TypePayWhatYouWant), Label: "Pay what you want"},
}

var paymentMethods = []MetaOption{
	{ID: models.PaymentMethodCard, Label: "Card"},
	{ID: models.PaymentMethodCash, Label: "Cash"},
	{ID: models.PaymentMethodBankTransfer, Label: "Bank transfer"},
	{ID: models.PaymentMethodOther, Label: "Other"},
}

func (h *MetaHandler) GetCampaignTypes(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: campaignTypes})
}

func (h *MetaHandler) GetPaymentMethods(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: paymentMethods})
}

// GetSizeTiers returns the display tiers used when a campaign defines none.
func (h *MetaHandler) GetSizeTiers(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: pricing.DefaultSizeTiers})
}
