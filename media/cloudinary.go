// Package media uploads pandit and puja photos to Cloudinary.
package media

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"puja-booking-server/config"
	"puja-booking-server/types"
)

// MaxImageBytes is the largest accepted upload
const MaxImageBytes = 5 * 1024 * 1024

// ValidateImage checks extension and size (<= 5MB)
func ValidateImage(h *multipart.FileHeader) error {
	if h == nil || h.Size <= 0 || h.Size > MaxImageBytes {
		return types.ErrInvalidImage
	}
	switch strings.ToLower(filepath.Ext(h.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return nil
	default:
		return types.ErrInvalidImage
	}
}

// ImageUploader stores images in a Cloudinary account
type ImageUploader struct {
	cld *cloudinary.Cloudinary
}

// NewImageUploader returns nil without error when Cloudinary is not configured
func NewImageUploader(cfg config.CloudinaryConfig) (*ImageUploader, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.CloudName != "" && cfg.APIKey != "" && cfg.APISecret != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		log.Info().Msg("cloudinary not configured, image uploads disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &ImageUploader{cld: cld}, nil
}

// UploadImage validates and uploads the file into folder, returning its https URL
func (u *ImageUploader) UploadImage(ctx context.Context, header *multipart.FileHeader, folder string) (string, error) {
	if err := ValidateImage(header); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	overwrite := true
	base := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		PublicID:     base + "-" + uuid.NewString()[:8],
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", res.Error.Message)
	}

	log.Info().Str("folder", folder).Str("url", res.SecureURL).Msg("image uploaded")
	return res.SecureURL, nil
}
