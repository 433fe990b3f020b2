package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"bookstore-service/internal/entity"
)

// Decoding allocates per pixel, so the canvas size is capped before decoding.
const maxImagePixels = 40_000_000

var saveImage = func(img image.Image, filename string) error {
	return imaging.Save(img, filename)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// UploadService stores cover and blog images on local disk together with a
// thumbnail.
type UploadService struct {
	dir         string
	baseURL     string
	maxBytes    int64
	thumbWidth  int
	thumbHeight int
}

func NewUploadService(dir, baseURL string, maxBytes int64, thumbWidth, thumbHeight int) *UploadService {
	return &UploadService{
		dir:         dir,
		baseURL:     baseURL,
		maxBytes:    maxBytes,
		thumbWidth:  thumbWidth,
		thumbHeight: thumbHeight,
	}
}

func (s *UploadService) Dir() string {
	return s.dir
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates r as an image and writes the original and its thumbnail.
func (s *UploadService) Save(ctx context.Context, r io.Reader) (*entity.Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	thumbDir := filepath.Join(s.dir, "thumbs")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	thumb := imaging.Fit(img, s.thumbWidth, s.thumbHeight, imaging.Lanczos)
	if err := saveImage(thumb, filepath.Join(thumbDir, name)); err != nil {
		if rmErr := os.Remove(filepath.Join(s.dir, name)); rmErr != nil {
			logger.Error().Err(rmErr).Msgf("Error removing upload %s", name)
		}
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	logger.Info().Msgf("Stored upload %s (%d bytes)", name, len(data))
	return &entity.Upload{
		Name:         name,
		URL:          path.Join(s.baseURL, name),
		ThumbnailURL: path.Join(s.baseURL, "thumbs", name),
		Size:         int64(len(data)),
		ContentType:  contentType,
	}, nil
}
