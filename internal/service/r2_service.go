package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	cfg "github.com/maheshrc27/postflow-sync/configs"
)

// R2Service stores objects in a Cloudflare R2 bucket through its S3 API.
type R2Service struct {
	bucket string
	client *s3.Client
	logger *zap.Logger
}

func NewR2Service(ctx context.Context, r2 cfg.R2, logger *zap.Logger) (*R2Service, error) {
	if r2.AccountID == "" || r2.BucketName == "" {
		return nil, fmt.Errorf("r2 storage is not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("loading r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})

	return &R2Service{bucket: r2.BucketName, client: client, logger: logger}, nil
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		r.logger.Error("R2 upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
