package upload

import (
	"context"

	"github.com/rs/zerolog"
)

// fallbackUploader tries the primary uploader first, then the secondary.
type fallbackUploader struct {
	primary   Uploader
	secondary Uploader
	logger    zerolog.Logger
}

// NewFallbackUploader creates an uploader that falls back to secondary when
// primary fails. A nil primary uses secondary only.
func NewFallbackUploader(primary, secondary Uploader, logger zerolog.Logger) Uploader {
	return &fallbackUploader{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-uploader").Logger(),
	}
}

// Upload attempts the primary uploader, then the secondary one.
func (u *fallbackUploader) Upload(ctx context.Context, file File) (string, error) {
	if u.primary != nil {
		url, err := u.primary.Upload(ctx, file)
		if err == nil {
			return url, nil
		}

		u.logger.Warn().
			Err(err).
			Str("file", file.Name).
			Msg("primary upload failed, falling back")
	}

	return u.secondary.Upload(ctx, file)
}
