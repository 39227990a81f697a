package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/service"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

const videoWaitTimeout = 2 * time.Minute

type VideoHandler struct {
	s service.VideoService
}

func NewVideoHandler(s service.VideoService) *VideoHandler {
	return &VideoHandler{s: s}
}

func (h *VideoHandler) Generate(c *fiber.Ctx) error {
	var req transfer.GenerateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	video, err := h.s.Generate(c.Context(), req)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(video)
}

// Await blocks until the video leaves the generating state.
func (h *VideoHandler) Await(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), videoWaitTimeout)
	defer cancel()

	video, err := h.s.Await(ctx, c.Params("id"), 0)
	if err != nil && video == nil {
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(video)
}

func (h *VideoHandler) Approve(c *fiber.Ctx) error {
	var req transfer.ApproveVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}
	req.VideoID = c.Params("id")

	if err := h.s.Approve(c.Context(), req.PostID, req.VideoID); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
