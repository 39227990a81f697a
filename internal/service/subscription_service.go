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
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

type SubscriptionAPI interface {
	DirectPublish(ctx context.Context) (*transfer.DirectPublishResponse, error)
	RedeemGiftCertificate(ctx context.Context, req transfer.GiftCertificateRedemption) (*transfer.GiftCertificateResponse, error)
}

type SubscriptionService interface {
	Usage(ctx context.Context) (*models.SubscriptionUsage, error)
	Publish(ctx context.Context) (*transfer.DirectPublishResponse, error)
	RedeemGiftCertificate(ctx context.Context, req transfer.GiftCertificateRedemption) (*transfer.GiftCertificateResponse, error)
}

type subscriptionService struct {
	api      SubscriptionAPI
	cache    Cache
	notifier notify.Notifier
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSubscriptionService(api SubscriptionAPI, c Cache, notifier notify.Notifier, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{
		api:      api,
		cache:    c,
		notifier: notifier,
		validate: newValidator(),
		logger:   logger,
	}
}

func (s *subscriptionService) Usage(ctx context.Context) (*models.SubscriptionUsage, error) {
	usage, err := cache.GetJSON[*models.SubscriptionUsage](ctx, s.cache, cache.KeySubscriptionUsage)
	if err != nil {
		return nil, fmt.Errorf("loading subscription usage: %w", err)
	}
	return usage, nil
}

// Publish asks the server to publish every approved post now. Running out
// of quota is a business rule failure pointing at the subscription page.
func (s *subscriptionService) Publish(ctx context.Context) (*transfer.DirectPublishResponse, error) {
	resp, err := s.api.DirectPublish(ctx)
	if err != nil {
		if errors.Is(err, apiclient.ErrQuotaExceeded) {
			s.logger.Info("Direct publish blocked by quota", zap.Error(err))
			s.notifier.Notify(notify.FromError("Post limit reached", err))
			s.refresh(ctx, cache.KeySubscriptionUsage)
			return resp, err
		}
		s.logger.Error("Direct publish failed", zap.Error(err))
		s.notifier.Notify(notify.FromError("Publishing failed", err))
		return nil, err
	}

	s.refresh(ctx, cache.KeyPosts, cache.KeySubscriptionUsage)

	if resp.SuccessCount < resp.TotalPosts {
		s.notifier.Notify(notify.Warning("Publishing finished",
			fmt.Sprintf("%d of %d posts were published.", resp.SuccessCount, resp.TotalPosts)))
	} else {
		s.notifier.Notify(notify.Success("Posts published",
			fmt.Sprintf("%d posts were published.", resp.SuccessCount)))
	}
	return resp, nil
}

func (s *subscriptionService) RedeemGiftCertificate(ctx context.Context, req transfer.GiftCertificateRedemption) (*transfer.GiftCertificateResponse, error) {
	if err := checkStruct(s.validate, req); err != nil {
		s.notifier.Notify(notify.FromError("Check the certificate details", err))
		return nil, err
	}

	resp, err := s.api.RedeemGiftCertificate(ctx, req)
	if err != nil {
		s.logger.Warn("Gift certificate redemption failed", zap.Error(err))
		s.notifier.Notify(notify.FromError("Redemption failed", err))
		return nil, err
	}

	s.refresh(ctx, cache.KeyUser, cache.KeyUserStatus, cache.KeySubscriptionUsage)
	s.notifier.Notify(notify.Success("Certificate redeemed",
		fmt.Sprintf("You are on the %s plan with %d posts remaining.", resp.Plan, resp.User.RemainingPosts)))
	return resp, nil
}

func (s *subscriptionService) refresh(ctx context.Context, keys ...cache.Key) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("Cache refresh failed", zap.Error(err))
	}
}

// checkStruct runs struct validation and reports failures per JSON field.
func checkStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &apiclient.ValidationError{Fields: fields}
}
