// Package api is the local console: a fiber app that exposes the sync
// client's views and actions to a UI or a script.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/api/handlers"
	"github.com/maheshrc27/postflow-sync/internal/api/middleware"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/service"
)

type Services struct {
	Posts         service.PostService
	Generation    service.GenerationService
	Connections   service.ConnectionService
	Subscriptions service.SubscriptionService
	Brand         service.BrandService
	Videos        service.VideoService
	Media         service.MediaService
	Analytics     service.AnalyticsService
	Focus         handlers.Focuser
	Notifications *notify.Center
}

type Options struct {
	SecretKey   string
	FrontendURL string
	Location    *time.Location
	AccessLog   bool
}

func NewServer(opts Options, s Services, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Minute,
		WriteTimeout:          5 * time.Minute,
		BodyLimit:             100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.Error("Console request failed", zap.String("path", c.Path()), zap.Error(err))
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(opts.SecretKey, logger)

	platform := handlers.NewPlatformHandler(s.Connections, opts.SecretKey, opts.FrontendURL, logger)
	app.Get("/console/connections/:platform/callback", platform.Callback)

	console := app.Group("/console")
	console.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(s.Posts, opts.Location)
	console.Get("/calendar", post.Calendar)
	console.Get("/posts", post.ListPosts)
	console.Post("/posts/:id/edit", post.StartEdit)
	console.Put("/posts/:id", post.SaveEdit)
	console.Delete("/posts/:id/edit", post.CancelEdit)
	console.Post("/posts/:id/approve", post.Approve)
	console.Post("/posts/:id/video-approved", post.VideoApproved)

	generation := handlers.NewGenerationHandler(s.Generation)
	console.Post("/generate", generation.Generate)
	console.Get("/insights", generation.Insights)

	console.Get("/connections", platform.ListConnections)
	console.Get("/connections/:platform/connect", platform.Connect)
	console.Post("/connections/:platform/disconnect", platform.Disconnect)

	subscription := handlers.NewSubscriptionHandler(s.Subscriptions, s.Focus, logger)
	console.Get("/usage", subscription.Usage)
	console.Post("/focus", subscription.Focus)
	console.Post("/publish", subscription.Publish)
	console.Post("/gift-certificates/redeem", subscription.Redeem)

	notifications := handlers.NewNotificationHandler(s.Notifications)
	console.Get("/notifications", notifications.List)
	console.Delete("/notifications/:id", notifications.Dismiss)

	brand := handlers.NewBrandHandler(s.Brand)
	console.Get("/brand-purpose", brand.GetBrandPurpose)
	console.Post("/brand-purpose", brand.SaveBrandPurpose)

	video := handlers.NewVideoHandler(s.Videos)
	console.Post("/videos", video.Generate)
	console.Get("/videos/:id", video.Await)
	console.Post("/videos/:id/approve", video.Approve)

	media := handlers.NewMediaHandler(s.Media, logger)
	console.Post("/media", media.Upload)

	analytics := handlers.NewAnalyticsHandler(s.Analytics)
	console.Get("/analytics", analytics.Analytics)
	console.Get("/admin/monitoring", analytics.Monitoring)

	return app
}
