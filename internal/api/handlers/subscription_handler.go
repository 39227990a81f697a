package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/service"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

// Focuser revalidates focus-enabled cache keys.
type Focuser interface {
	Focus(ctx context.Context) error
}

type SubscriptionHandler struct {
	s      service.SubscriptionService
	focus  Focuser
	logger *zap.Logger
}

func NewSubscriptionHandler(s service.SubscriptionService, focus Focuser, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{s: s, focus: focus, logger: logger}
}

func (h *SubscriptionHandler) Usage(c *fiber.Ctx) error {
	usage, err := h.s.Usage(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(usage)
}

// Focus is called by a UI when its window regains focus.
func (h *SubscriptionHandler) Focus(c *fiber.Ctx) error {
	if err := h.focus.Focus(c.Context()); err != nil {
		h.logger.Warn("Focus revalidation failed", zap.Error(err))
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SubscriptionHandler) Publish(c *fiber.Ctx) error {
	resp, err := h.s.Publish(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SubscriptionHandler) Redeem(c *fiber.Ctx) error {
	var req transfer.GiftCertificateRedemption
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	resp, err := h.s.RedeemGiftCertificate(c.Context(), req)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
