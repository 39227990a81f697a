package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/notify"
)

type NotificationHandler struct {
	center *notify.Center
}

func NewNotificationHandler(center *notify.Center) *NotificationHandler {
	return &NotificationHandler{center: center}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.center.List())
}

func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	if !h.center.Dismiss(c.Params("id")) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Notification is missing or requires action",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
