package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/models"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

type ObjectStore interface {
	UploadToR2(ctx context.Context, key string, file []byte, contentType string) error
}

type MediaService interface {
	Upload(ctx context.Context, file []byte) (*models.MediaAsset, error)
}

type mediaService struct {
	store     ObjectStore
	publicURL string
	logger    *zap.Logger
}

func NewMediaService(store ObjectStore, publicURL string, logger *zap.Logger) MediaService {
	return &mediaService{
		store:     store,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Upload stores custom media for a post under a random key and returns the
// asset with its public URL.
func (s *mediaService) Upload(ctx context.Context, file []byte) (*models.MediaAsset, error) {
	kind, err := filetype.Match(file)
	if err != nil || kind == types.Unknown {
		return nil, fmt.Errorf("%w: unrecognised content", ErrUnsupportedMedia)
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generating media key: %w", err)
	}
	key := id + "." + kind.Extension

	if err := s.store.UploadToR2(ctx, key, file, kind.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	s.logger.Info("Media uploaded", zap.String("key", key), zap.String("type", kind.MIME.Value), zap.Int("size", len(file)))

	return &models.MediaAsset{
		Key:      key,
		FileType: kind.MIME.Value,
		FileSize: int64(len(file)),
		FileURL:  fmt.Sprintf("%s/%s", s.publicURL, key),
	}, nil
}
