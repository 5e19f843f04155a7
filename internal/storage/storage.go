// Package storage keeps uploaded files (the business logo) on local disk or in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go-inventory-pos/internal/config"

	"go.uber.org/zap"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage stores objects under a key and resolves the URL clients load them from.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New picks the driver named by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocal(cfg.StorageLocalDir, cfg.StoragePublicURL)
	case "s3":
		return NewS3(ctx, S3Options{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
			PublicURL:    cfg.StoragePublicURL,
		}, log)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
