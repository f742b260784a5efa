// Package upload stores product images with an external image host.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"capriccio/internal/config"

	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by an uploader whose credentials are missing.
var ErrNotConfigured = errors.New("Error de configuración: Cloudinary Cloud Name o Upload Preset no configurado.")

// File is an image to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores an image and returns its durable public URL.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
}

// New builds the uploader selected by the configuration.
func New(ctx context.Context, uploadCfg config.UploadConfig, s3Cfg config.S3Config, logger zerolog.Logger) (Uploader, error) {
	cloudinary := NewCloudinaryUploader(
		uploadCfg.CloudinaryCloudName,
		uploadCfg.CloudinaryPreset,
		&http.Client{Timeout: 60 * time.Second},
		logger,
	)

	if uploadCfg.Provider == "cloudinary" {
		return cloudinary, nil
	}

	s3Uploader, err := NewS3Uploader(ctx, s3Cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create s3 uploader: %w", err)
	}

	if uploadCfg.Provider == "s3" {
		return s3Uploader, nil
	}
	return NewFallbackUploader(s3Uploader, cloudinary, logger), nil
}
