package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/service"
)

type BrandHandler struct {
	s service.BrandService
}

func NewBrandHandler(s service.BrandService) *BrandHandler {
	return &BrandHandler{s: s}
}

func (h *BrandHandler) GetBrandPurpose(c *fiber.Ctx) error {
	bp, err := h.s.Get(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	if bp == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Brand purpose not set up",
			"redirect": "/brand-purpose",
		})
	}
	return c.Status(fiber.StatusOK).JSON(bp)
}

func (h *BrandHandler) SaveBrandPurpose(c *fiber.Ctx) error {
	var bp models.BrandPurpose
	if err := c.BodyParser(&bp); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	saved, err := h.s.Save(c.Context(), bp)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(saved)
}
