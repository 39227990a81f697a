package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/service"
)

type GenerationHandler struct {
	s service.GenerationService
}

func NewGenerationHandler(s service.GenerationService) *GenerationHandler {
	return &GenerationHandler{s: s}
}

func (h *GenerationHandler) Generate(c *fiber.Ctx) error {
	var opts service.GenerateOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse json",
			})
		}
	}

	result, err := h.s.Generate(c.Context(), opts)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *GenerationHandler) Insights(c *fiber.Ctx) error {
	insights, generated := h.s.Insights()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"generated": generated,
		"insights":  insights,
	})
}
