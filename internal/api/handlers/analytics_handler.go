package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/service"
)

type AnalyticsHandler struct {
	s service.AnalyticsService
}

func NewAnalyticsHandler(s service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{s: s}
}

func (h *AnalyticsHandler) Analytics(c *fiber.Ctx) error {
	a, err := h.s.Analytics(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *AnalyticsHandler) Monitoring(c *fiber.Ctx) error {
	m, err := h.s.Monitoring(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(m)
}
