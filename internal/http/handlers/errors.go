package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sponsorwall/backend/internal/apperr"
	"github.com/sponsorwall/backend/internal/http/dto"
	"github.com/sponsorwall/backend/internal/middleware"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error. Typed errors keep their message
// and status; anything else is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID := middleware.RequestID(c)

	kind := apperr.KindOf(err)
	if kind == "" {
		log.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:     "internal error",
			Code:      "internal",
			RequestID: reqID,
		})
	}

	if !kind.Critical() {
		log.Debug("request rejected", zap.String("request_id", reqID), zap.String("kind", string(kind)), zap.Error(err))
	}
	return c.Status(kind.HTTPStatus()).JSON(dto.ErrorResponse{
		Error:     apperr.Message(err),
		Code:      string(kind),
		RequestID: reqID,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	reqID := middleware.RequestID(c)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:     msg,
		Code:      string(apperr.KindInvalidRequest),
		RequestID: reqID,
	})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// page reads limit and offset query parameters.
func page(c *fiber.Ctx) (limit, offset int) {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
