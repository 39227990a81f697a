package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/calendar"
	"github.com/maheshrc27/postflow-sync/internal/service"
)

type PostHandler struct {
	s   service.PostService
	loc *time.Location
	now func() time.Time
}

func NewPostHandler(service service.PostService, loc *time.Location) *PostHandler {
	return &PostHandler{s: service, loc: loc, now: time.Now}
}

type editRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) Calendar(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context())
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"timezone": h.loc.String(),
		"days":     calendar.Build(h.now(), h.loc, posts),
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	states, err := h.s.States(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(states)
}

func (h *PostHandler) StartEdit(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	posts, err := h.s.List(c.Context())
	if err != nil {
		return sendError(c, err)
	}
	for _, p := range posts {
		if p.ID == postID {
			return c.Status(fiber.StatusOK).JSON(h.s.StartEdit(p))
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Post not found",
	})
}

func (h *PostHandler) SaveEdit(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var req editRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if err := h.s.SetDraft(postID, req.Content); err != nil {
		return sendError(c, err)
	}

	post, err := h.s.SaveEdit(c.Context(), postID)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) CancelEdit(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}
	h.s.CancelEdit(postID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) Approve(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	result, err := h.s.Approve(c.Context(), postID)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) VideoApproved(c *fiber.Ctx) error {
	postID, err := parsePostID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.VideoApproved(c.Context(), postID); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
