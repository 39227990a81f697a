package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
)

type BrandAPI interface {
	SaveBrandPurpose(ctx context.Context, bp models.BrandPurpose) (*models.BrandPurpose, error)
}

type BrandService interface {
	// Get returns nil without error when no brand purpose has been saved.
	Get(ctx context.Context) (*models.BrandPurpose, error)
	Save(ctx context.Context, bp models.BrandPurpose) (*models.BrandPurpose, error)
}

type brandService struct {
	api      BrandAPI
	cache    Cache
	notifier notify.Notifier
	validate *validator.Validate
	logger   *zap.Logger
}

func NewBrandService(api BrandAPI, c Cache, notifier notify.Notifier, logger *zap.Logger) BrandService {
	return &brandService{
		api:      api,
		cache:    c,
		notifier: notifier,
		validate: newValidator(),
		logger:   logger,
	}
}

func (s *brandService) Get(ctx context.Context) (*models.BrandPurpose, error) {
	bp, err := cache.GetJSON[*models.BrandPurpose](ctx, s.cache, cache.KeyBrandPurpose)
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading brand purpose: %w", err)
	}
	return bp, nil
}

func (s *brandService) Save(ctx context.Context, bp models.BrandPurpose) (*models.BrandPurpose, error) {
	if err := checkStruct(s.validate, bp); err != nil {
		s.notifier.Notify(notify.FromError("Check your brand purpose", err))
		return nil, err
	}

	saved, err := s.api.SaveBrandPurpose(ctx, bp)
	if err != nil {
		s.logger.Error("Failed to save brand purpose", zap.Error(err))
		s.notifier.Notify(notify.FromError("Failed to save brand purpose", err))
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, cache.KeyBrandPurpose); err != nil {
		s.logger.Warn("Brand purpose refresh failed", zap.Error(err))
	}
	s.notifier.Notify(notify.Success("Brand purpose saved", "Your brand purpose will guide content generation."))
	return saved, nil
}
