// Package app assembles the sync client from configuration: API client,
// cache, notification center and the workflow services.
package app

import (
	"context"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/maheshrc27/postflow-sync/configs"
	"github.com/maheshrc27/postflow-sync/internal/api"
	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/calendar"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/service"
	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

const notificationLimit = 100

// ViewKeys are the resources a running console keeps subscribed, so
// invalidation and background revalidation refetch them.
var ViewKeys = []cache.Key{
	cache.KeyUser,
	cache.KeyUserStatus,
	cache.KeyPosts,
	cache.KeySubscriptionUsage,
	cache.KeyPlatformConnections,
	cache.KeyAnalytics,
	cache.KeyAdminMonitoring,
}

type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Client        *apiclient.Client
	Cache         *cache.Cache
	Notifications *notify.Center
	Location      *time.Location

	Posts         service.PostService
	Generation    service.GenerationService
	Connections   service.ConnectionService
	Subscriptions service.SubscriptionService
	Brand         service.BrandService
	Videos        service.VideoService
	Media         service.MediaService
	Analytics     service.AnalyticsService

	redis *redis.Client
}

// New wires every component. transport may be nil; tests pass one that
// routes into a fake backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, transport http.RoundTripper) (*App, error) {
	loc, err := calendar.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, err
	}

	client := apiclient.New(apiclient.Options{
		BaseURL:      cfg.APIBaseURL,
		SessionToken: cfg.APISessionToken,
		Timeout:      cfg.APITimeout,
		Transport:    transport,
	}, logger.Named("api"))

	a := &App{
		Config:        cfg,
		Logger:        logger,
		Client:        client,
		Notifications: notify.NewCenter(notificationLimit, logger.Named("notify")),
		Location:      loc,
	}

	var store cache.Store
	if cfg.RedisURI != "" {
		a.redis, err = cache.NewRedisClient(ctx, cfg.RedisURI)
		if err != nil {
			return nil, err
		}
		store = cache.NewRedisStore(a.redis, cfg.SecretKey, cacheScope(cfg))
		logger.Info("Using shared redis cache store")
	}
	a.Cache = cache.New(client, store, logger.Named("cache"))

	n := a.Notifications
	a.Posts = service.NewPostService(client, a.Cache, n, logger.Named("posts"))
	a.Generation = service.NewGenerationService(client, a.Cache, n, logger.Named("generation"))
	a.Connections = service.NewConnectionService(client, a.Cache, n, cfg.SecretKey, logger.Named("connections"))
	a.Subscriptions = service.NewSubscriptionService(client, a.Cache, n, logger.Named("subscription"))
	a.Brand = service.NewBrandService(client, a.Cache, n, logger.Named("brand"))
	a.Videos = service.NewVideoService(client, a.Posts, n, logger.Named("video"))
	a.Analytics = service.NewAnalyticsService(a.Cache)

	if cfg.R2.AccountID != "" {
		r2, err := service.NewR2Service(ctx, cfg.R2, logger.Named("r2"))
		if err != nil {
			return nil, err
		}
		a.Media = service.NewMediaService(r2, cfg.R2.PublicURL, logger.Named("media"))
	}

	return a, nil
}

// cacheScope keeps entries of different accounts apart in a shared store.
func cacheScope(cfg *config.Config) string {
	return hex.EncodeToString(utils.DeriveKey(cfg.APIBaseURL + "|" + cfg.APISessionToken)[:8])
}

// Mount subscribes the console views. The returned func unsubscribes them.
func (a *App) Mount() func() {
	unsubs := make([]func(), 0, len(ViewKeys))
	for _, key := range ViewKeys {
		key := key
		unsubs = append(unsubs, a.Cache.Subscribe(key, func(data []byte) {
			a.Logger.Debug("View refreshed", zap.String("key", string(key)), zap.Int("bytes", len(data)))
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (a *App) Services() api.Services {
	return api.Services{
		Posts:         a.Posts,
		Generation:    a.Generation,
		Connections:   a.Connections,
		Subscriptions: a.Subscriptions,
		Brand:         a.Brand,
		Videos:        a.Videos,
		Media:         a.Media,
		Analytics:     a.Analytics,
		Focus:         a.Cache,
		Notifications: a.Notifications,
	}
}

func (a *App) Close() {
	a.Generation.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
}
