package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
)

// multipart headers and boundaries on top of the file itself
const formOverhead = 1 << 20

type UploadService interface {
	MaxBytes() int64
	Save(ctx context.Context, r io.Reader) (*entity.Upload, error)
}

type UploadHandler struct {
	uploadService UploadService
}

func NewUploadHandler(uploadService UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores an image and its thumbnail --> /uploads
func (h *UploadHandler) Upload(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.uploadService.MaxBytes()+formOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(413, map[string]string{"error": "upload too large"})
		}
		return c.JSON(400, map[string]string{"error": "file is required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(400, map[string]string{"error": "file is unreadable"})
	}
	defer f.Close()

	upload, err := h.uploadService.Save(req.Context(), f)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, upload)
}
