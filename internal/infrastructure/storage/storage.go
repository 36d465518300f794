// Package storage selects the photo archive from configuration
package storage

import (
	"fmt"

	"github.com/rasoiops/rasoiops/internal/infrastructure/config"
	"github.com/rasoiops/rasoiops/internal/infrastructure/storage/local"
	"github.com/rasoiops/rasoiops/internal/infrastructure/storage/s3"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"go.uber.org/zap"
)

// NewPhotoStore returns the configured archive, or nil when archiving is off
func NewPhotoStore(cfg config.PhotosConfig, logger *zap.Logger) (outbound.PhotoStore, error) {
	switch cfg.Provider {
	case config.PhotosNone, "":
		return nil, nil
	case config.PhotosLocal:
		return local.NewStore(cfg.LocalPath, logger)
	case config.PhotosS3:
		return s3.NewStore(s3.Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown photo provider %q", cfg.Provider)
	}
}
