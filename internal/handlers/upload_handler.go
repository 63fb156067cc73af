package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
)

type UploadService interface {
	Upload(ctx context.Context, identity models.Identity, file *multipart.FileHeader) (*services.UploadResult, error)
}

type UploadHandler struct {
	uploads UploadService
}

func NewUploadHandler(uploads UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group, m ...echo.MiddlewareFunc) {
	g.POST("/upload", h.UploadImage, m...)
}

// UploadImage stores the multipart "file" field and returns its public URL.
func (h *UploadHandler) UploadImage(c echo.Context) error {
	identity, err := identityOf(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return services.ErrFileMissing
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form").SetInternal(err)
	}

	result, err := h.uploads.Upload(c.Request().Context(), identity, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "File uploaded successfully",
		"fileName": result.FileName,
		"url":      result.URL,
	})
}
