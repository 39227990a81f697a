package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

const (
	defaultVideoDuration = 10
	defaultVideoStyle    = "cinematic"
	maxVideoDuration     = 60
)

var ErrVideoFailed = errors.New("video generation failed")

type VideoAPI interface {
	GenerateVideo(ctx context.Context, req transfer.GenerateVideoRequest) (*models.GeneratedVideo, error)
	GetVideo(ctx context.Context, videoID string) (*models.GeneratedVideo, error)
	ApproveVideo(ctx context.Context, req transfer.ApproveVideoRequest) error
}

type VideoService interface {
	Generate(ctx context.Context, req transfer.GenerateVideoRequest) (*models.GeneratedVideo, error)
	Await(ctx context.Context, videoID string, interval time.Duration) (*models.GeneratedVideo, error)
	Approve(ctx context.Context, postID int64, videoID string) error
}

type videoService struct {
	api      VideoAPI
	posts    PostService
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewVideoService(api VideoAPI, posts PostService, notifier notify.Notifier, logger *zap.Logger) VideoService {
	return &videoService{api: api, posts: posts, notifier: notifier, logger: logger}
}

func (s *videoService) Generate(ctx context.Context, req transfer.GenerateVideoRequest) (*models.GeneratedVideo, error) {
	if req.PostID == 0 || req.Prompt == "" {
		return nil, fmt.Errorf("generating video: post and prompt are required")
	}
	if req.Duration <= 0 {
		req.Duration = defaultVideoDuration
	}
	if req.Duration > maxVideoDuration {
		req.Duration = maxVideoDuration
	}
	if req.Style == "" {
		req.Style = defaultVideoStyle
	}

	video, err := s.api.GenerateVideo(ctx, req)
	if err != nil {
		s.logger.Error("Video generation request failed", zap.Int64("post_id", req.PostID), zap.Error(err))
		s.notifier.Notify(notify.FromError("Video generation failed", err))
		return nil, err
	}
	s.logger.Info("Video generation started", zap.String("video_id", video.ID), zap.Int64("post_id", req.PostID))
	return video, nil
}

// Await polls the video until its status leaves generating or ctx ends.
func (s *videoService) Await(ctx context.Context, videoID string, interval time.Duration) (*models.GeneratedVideo, error) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		video, err := s.api.GetVideo(ctx, videoID)
		if err != nil {
			s.logger.Warn("Video status poll failed", zap.String("video_id", videoID), zap.Error(err))
		} else {
			switch video.Status {
			case models.VideoStatusReady:
				return video, nil
			case models.VideoStatusFailed:
				err := fmt.Errorf("%w: %s", ErrVideoFailed, videoID)
				s.notifier.Notify(notify.FromError("Video generation failed", err))
				return video, err
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for video %s: %w", videoID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Approve attaches the video to its post and lets the post lifecycle pick
// up the combined post on its next read.
func (s *videoService) Approve(ctx context.Context, postID int64, videoID string) error {
	if err := s.api.ApproveVideo(ctx, transfer.ApproveVideoRequest{PostID: postID, VideoID: videoID}); err != nil {
		s.logger.Error("Video approval failed", zap.Int64("post_id", postID), zap.String("video_id", videoID), zap.Error(err))
		s.notifier.Notify(notify.FromError("Video approval failed", err))
		return err
	}
	return s.posts.VideoApproved(ctx, postID)
}
