package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/service"
)

type MediaHandler struct {
	s      service.MediaService
	logger *zap.Logger
}

func NewMediaHandler(s service.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{s: s, logger: logger}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	if h.s == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Media storage is not configured",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	content, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	asset, err := h.s.Upload(c.Context(), data)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}
