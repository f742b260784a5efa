package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/rs/zerolog"
)

const cloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// cloudinaryUploader posts images to Cloudinary with an unsigned preset.
type cloudinaryUploader struct {
	baseURL   string
	cloudName string
	preset    string
	client    *http.Client
	logger    zerolog.Logger
}

// NewCloudinaryUploader creates an unsigned-preset Cloudinary uploader.
func NewCloudinaryUploader(cloudName, preset string, client *http.Client, logger zerolog.Logger) Uploader {
	return &cloudinaryUploader{
		baseURL:   cloudinaryBaseURL,
		cloudName: cloudName,
		preset:    preset,
		client:    client,
		logger:    logger.With().Str("component", "cloudinary-uploader").Logger(),
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the file as multipart/form-data and returns the secure URL.
func (u *cloudinaryUploader) Upload(ctx context.Context, file File) (string, error) {
	if u.cloudName == "" || u.preset == "" {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("write preset field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Error().Err(err).Str("file", file.Name).Msg("image upload request failed")
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var result cloudinaryResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || result.SecureURL == "" {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		u.logger.Warn().Int("status", resp.StatusCode).Str("error", msg).Msg("image host rejected upload")
		return "", errors.New(msg)
	}

	u.logger.Info().Str("file", file.Name).Str("url", result.SecureURL).Msg("image uploaded")
	return result.SecureURL, nil
}
