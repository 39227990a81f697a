package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/service"
)

func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

func parsePostID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, apiclient.ErrValidation), errors.Is(err, service.ErrUnknownPlatform):
		return fiber.StatusBadRequest
	case errors.Is(err, apiclient.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, apiclient.ErrQuotaExceeded):
		return fiber.StatusPaymentRequired
	case errors.Is(err, apiclient.ErrNotFound), errors.Is(err, service.ErrNoEditInProgress):
		return fiber.StatusNotFound
	case errors.Is(err, apiclient.ErrBrandPurposeMissing):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, service.ErrApprovalInFlight), errors.Is(err, service.ErrSaveInFlight):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUnsupportedMedia):
		return fiber.StatusUnsupportedMediaType
	}
	return fiber.StatusBadGateway
}

// sendError renders err with the same classification the notification
// center uses, so a script sees where a UI would redirect.
func sendError(c *fiber.Ctx, err error) error {
	n := notify.FromError("", err)
	body := fiber.Map{
		"error":     n.Message,
		"category":  n.Category,
		"retryable": n.Retryable,
	}
	if n.Redirect != "" {
		body["redirect"] = n.Redirect
	}
	var verr *apiclient.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	return c.Status(errorStatus(err)).JSON(body)
}
