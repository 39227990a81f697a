package service

import (
	"context"
	"fmt"

	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
)

type AnalyticsService interface {
	Analytics(ctx context.Context) (*models.Analytics, error)
	Monitoring(ctx context.Context) (*models.MonitoringSnapshot, error)
}

type analyticsService struct {
	cache cache.Getter
}

func NewAnalyticsService(c cache.Getter) AnalyticsService {
	return &analyticsService{cache: c}
}

func (s *analyticsService) Analytics(ctx context.Context) (*models.Analytics, error) {
	a, err := cache.GetJSON[*models.Analytics](ctx, s.cache, cache.KeyAnalytics)
	if err != nil {
		return nil, fmt.Errorf("loading analytics: %w", err)
	}
	return a, nil
}

func (s *analyticsService) Monitoring(ctx context.Context) (*models.MonitoringSnapshot, error) {
	m, err := cache.GetJSON[*models.MonitoringSnapshot](ctx, s.cache, cache.KeyAdminMonitoring)
	if err != nil {
		return nil, fmt.Errorf("loading monitoring snapshot: %w", err)
	}
	return m, nil
}
