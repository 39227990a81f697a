// Package fakeapi is an in-process stand-in for the SaaS backend. It is a
// fiber app reached through an http.RoundTripper, so clients under test
// exercise their real HTTP path without opening a socket.
package fakeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

const BaseURL = "http://backend.test"

type Backend struct {
	App *fiber.App

	mu                sync.Mutex
	hits              map[string]int
	failures          map[string]int
	Posts             map[int64]*models.Post
	Connections       []models.PlatformConnection
	LiveState         map[models.Platform]bool
	Probes            map[models.Platform]bool
	User              models.User
	UserStatus        models.UserStatus
	Usage             models.SubscriptionUsage
	BrandPurpose      *models.BrandPurpose
	Videos            map[string]*models.GeneratedVideo
	VideoReadyAfter   int
	QueueApprovals    bool
	QuotaExceeded     bool
	DisconnectVersion string
	LastGenerate      *transfer.GenerateContentRequest
	nextPostID        int64
}

func New() *Backend {
	b := &Backend{
		App:               fiber.New(fiber.Config{DisableStartupMessage: true}),
		hits:              map[string]int{},
		failures:          map[string]int{},
		Posts:             map[int64]*models.Post{},
		LiveState:         map[models.Platform]bool{},
		Probes:            map[models.Platform]bool{},
		Videos:            map[string]*models.GeneratedVideo{},
		QueueApprovals:    true,
		DisconnectVersion: "1.3",
		User:              models.User{ID: 1, Email: "owner@example.com", SubscriptionPlan: "professional", RemainingPosts: 52, TotalPosts: 52},
		UserStatus:        models.UserStatus{Authenticated: true, HasActiveSubscription: true, SubscriptionPlan: "professional"},
		Usage:             models.SubscriptionUsage{SubscriptionPlan: "professional", TotalAllocation: 52, RemainingPosts: 52},
		nextPostID:        100,
	}
	b.routes()
	return b
}

// Transport routes requests into the fiber app.
func (b *Backend) Transport() http.RoundTripper {
	return roundTripper{app: b.App}
}

type roundTripper struct {
	app *fiber.App
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.app.Test(req, -1)
}

// Hits counts requests by "METHOD /path".
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// Fail makes every request to path answer with status until Recover.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = status
}

func (b *Backend) Recover(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, path)
}

// AddPost stores a post and returns its id.
func (b *Backend) AddPost(p models.Post) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == 0 {
		b.nextPostID++
		p.ID = b.nextPostID
	}
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	b.Posts[p.ID] = &p
	return p.ID
}

func (b *Backend) Post(id int64) (models.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.Posts[id]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

func (b *Backend) SetProbe(p models.Platform, connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Probes[p] = connected
}

func (b *Backend) routes() {
	b.App.Use(func(c *fiber.Ctx) error {
		b.mu.Lock()
		b.hits[c.Method()+" "+c.Path()]++
		status, failing := b.failures[c.Path()]
		b.mu.Unlock()
		if failing {
			return c.Status(status).JSON(fiber.Map{"message": "forced failure"})
		}
		return c.Next()
	})

	api := b.App.Group("/api")
	api.Get("/user", b.locked(func(c *fiber.Ctx) error { return c.JSON(b.User) }))
	api.Get("/user-status", b.locked(func(c *fiber.Ctx) error { return c.JSON(b.UserStatus) }))
	api.Get("/subscription-usage", b.locked(func(c *fiber.Ctx) error { return c.JSON(b.Usage) }))
	api.Get("/platform-connections", b.locked(func(c *fiber.Ctx) error {
		if b.Connections == nil {
			return c.JSON([]models.PlatformConnection{})
		}
		return c.JSON(b.Connections)
	}))
	api.Get("/get-connection-state", b.locked(func(c *fiber.Ctx) error {
		return c.JSON(transfer.ConnectionStateResponse{Success: true, ConnectedPlatforms: b.LiveState})
	}))
	api.Get("/analytics", b.locked(func(c *fiber.Ctx) error {
		return c.JSON(models.Analytics{TotalPosts: len(b.Posts), TopPlatform: models.PlatformFacebook})
	}))
	api.Get("/admin/monitoring", b.locked(func(c *fiber.Ctx) error {
		return c.JSON(models.MonitoringSnapshot{ActiveUsers: 3, QueuedPosts: len(b.Posts), GeneratedAt: time.Now().UTC()})
	}))
	api.Get("/brand-purpose", b.locked(b.getBrandPurpose))
	api.Post("/brand-purpose", b.locked(b.saveBrandPurpose))
	api.Get("/posts", b.locked(b.listPosts))
	api.Put("/posts/:id", b.locked(b.updatePost))
	api.Post("/approve-post", b.locked(b.approvePost))
	api.Post("/generate-strategic-content", b.locked(b.generate))
	api.Post("/direct-publish", b.locked(b.directPublish))
	api.Post("/check-live-status", b.locked(b.checkLiveStatus))
	api.Post("/disconnect-platform", b.locked(b.disconnect))
	api.Post("/redeem-gift-certificate", b.locked(b.redeem))
	api.Post("/generate-video", b.locked(b.generateVideo))
	api.Get("/videos/:id", b.locked(b.getVideo))
	api.Post("/approve-video", b.locked(b.approveVideo))
}

func (b *Backend) locked(h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		return h(c)
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message})
}

func (b *Backend) getBrandPurpose(c *fiber.Ctx) error {
	if b.BrandPurpose == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Brand purpose not found"})
	}
	return c.JSON(b.BrandPurpose)
}

func (b *Backend) saveBrandPurpose(c *fiber.Ctx) error {
	var bp models.BrandPurpose
	if err := c.BodyParser(&bp); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	bp.ID = 1
	b.BrandPurpose = &bp
	return c.JSON(bp)
}

func (b *Backend) listPosts(c *fiber.Ctx) error {
	posts := make([]models.Post, 0, len(b.Posts))
	for _, p := range b.Posts {
		posts = append(posts, *p)
	}
	return c.JSON(posts)
}

func (b *Backend) updatePost(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid post id")
	}
	post, ok := b.Posts[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}

	var update transfer.PostUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	post.Content = update.Content
	post.Edited = update.Edited
	editedAt := update.EditedAt
	post.EditedAt = &editedAt
	return c.JSON(post)
}

func (b *Backend) approvePost(c *fiber.Ctx) error {
	var req transfer.ApprovePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	post, ok := b.Posts[req.PostID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}
	post.Status = models.PostStatusApproved
	return c.JSON(transfer.ApprovePostResponse{Queued: b.QueueApprovals})
}

func (b *Backend) generate(c *fiber.Ctx) error {
	var req transfer.GenerateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	if req.BrandPurpose == nil {
		return badRequest(c, "Brand purpose required")
	}
	b.LastGenerate = &req

	start := time.Now().UTC()
	for i := 0; i < req.TotalPosts; i++ {
		b.nextPostID++
		scheduled := start.Add(time.Duration(i) * 24 * time.Hour)
		platform := models.PlatformFacebook
		if len(req.Platforms) > 0 {
			platform = req.Platforms[i%len(req.Platforms)]
		}
		b.Posts[b.nextPostID] = &models.Post{
			ID:           b.nextPostID,
			Platform:     platform,
			Content:      fmt.Sprintf("Generated post %d", i+1),
			Status:       models.PostStatusDraft,
			ScheduledFor: &scheduled,
		}
	}
	if req.ResetQuota {
		b.Usage.RemainingPosts = b.Usage.TotalAllocation
	}
	return c.JSON(transfer.GenerateContentResponse{SavedCount: req.TotalPosts})
}

func (b *Backend) directPublish(c *fiber.Ctx) error {
	if b.QuotaExceeded {
		return c.Status(fiber.StatusForbidden).JSON(transfer.DirectPublishResponse{
			QuotaExceeded: true,
			Message:       "Post limit reached for your plan",
		})
	}
	var resp transfer.DirectPublishResponse
	for _, p := range b.Posts {
		if p.Status == models.PostStatusApproved {
			p.Status = models.PostStatusPublished
			resp.SuccessCount++
		}
		resp.TotalPosts++
	}
	return c.JSON(resp)
}

func (b *Backend) checkLiveStatus(c *fiber.Ctx) error {
	var req transfer.PlatformRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	return c.JSON(transfer.LiveStatusResponse{Success: true, Platform: req.Platform, IsConnected: b.Probes[req.Platform]})
}

func (b *Backend) disconnect(c *fiber.Ctx) error {
	var req transfer.PlatformRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	for i := range b.Connections {
		if b.Connections[i].Platform == req.Platform {
			b.Connections[i].IsActive = false
		}
	}
	delete(b.LiveState, req.Platform)
	b.Probes[req.Platform] = false
	return c.JSON(transfer.DisconnectResponse{
		Action:      "disconnected",
		Version:     b.DisconnectVersion,
		Platform:    req.Platform,
		IsConnected: false,
	})
}

func (b *Backend) redeem(c *fiber.Ctx) error {
	var req transfer.GiftCertificateRedemption
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	if req.Code != "GIFT-2025" {
		return badRequest(c, "Invalid or already redeemed certificate")
	}
	b.User.SubscriptionPlan = "growth"
	b.User.RemainingPosts = 27
	return c.JSON(transfer.GiftCertificateResponse{Plan: "growth", User: transfer.RedeemedUser{RemainingPosts: 27}})
}

func (b *Backend) generateVideo(c *fiber.Ctx) error {
	var req transfer.GenerateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	id := fmt.Sprintf("vid-%d", req.PostID)
	video := &models.GeneratedVideo{
		ID:        id,
		Title:     req.Prompt,
		Status:    models.VideoStatusGenerating,
		Platform:  req.Platform,
		Style:     req.Style,
		Duration:  req.Duration,
		CreatedAt: time.Now().UTC(),
	}
	b.Videos[id] = video
	return c.JSON(video)
}

func (b *Backend) getVideo(c *fiber.Ctx) error {
	video, ok := b.Videos[c.Params("id")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Video not found"})
	}
	if video.Status == models.VideoStatusGenerating {
		b.VideoReadyAfter--
		if b.VideoReadyAfter <= 0 {
			video.Status = models.VideoStatusReady
			video.URL = "https://cdn.example.com/" + video.ID + ".mp4"
			video.Thumbnail = "https://cdn.example.com/" + video.ID + ".jpg"
		}
	}
	return c.JSON(video)
}

func (b *Backend) approveVideo(c *fiber.Ctx) error {
	var req transfer.ApproveVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Unable to parse json")
	}
	post, ok := b.Posts[req.PostID]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}
	now := time.Now().UTC()
	post.Video = &models.PostVideo{HasVideo: true, VideoApproved: true, ApprovedAt: &now}
	post.Status = models.PostStatusApproved
	return c.SendStatus(fiber.StatusOK)
}
