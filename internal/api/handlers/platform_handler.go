package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/service"
	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

const connectWaitTimeout = 30 * time.Second

type PlatformHandler struct {
	s           service.ConnectionService
	secretKey   string
	frontendURL string
	logger      *zap.Logger
}

func NewPlatformHandler(s service.ConnectionService, secretKey, frontendURL string, logger *zap.Logger) *PlatformHandler {
	return &PlatformHandler{
		s:           s,
		secretKey:   secretKey,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// ListConnections returns the reconciled connection view. ?refresh=true
// reloads all sources first.
func (h *PlatformHandler) ListConnections(c *fiber.Ctx) error {
	if c.QueryBool("refresh") {
		if err := h.s.Load(c.Context()); err != nil {
			return sendError(c, err)
		}
	}
	return c.Status(fiber.StatusOK).JSON(h.s.Statuses(c.Context()))
}

func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	authURL, err := h.s.ConnectURL(models.Platform(c.Params("platform")), GetUserID(c))
	if err != nil {
		return sendError(c, err)
	}
	return c.Redirect(authURL)
}

// Callback is where the OAuth flow lands once the provider hands control
// back. It waits for the backend to report the platform as connected.
func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))

	if _, err := utils.ValidateToken(h.secretKey, c.Query("state")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), connectWaitTimeout)
	defer cancel()

	if err := h.s.AwaitConnection(ctx, platform, 2*time.Second); err != nil {
		h.logger.Warn("Platform did not report connected", zap.String("platform", string(platform)), zap.Error(err))
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Platform connection not confirmed yet",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.frontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) Disconnect(c *fiber.Ctx) error {
	platform := models.Platform(c.Params("platform"))

	if err := h.s.Disconnect(c.Context(), platform); err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platform":  platform,
		"connected": h.s.IsConnected(c.Context(), platform),
	})
}
