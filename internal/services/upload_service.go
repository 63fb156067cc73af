package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/pkg/storage"
)

// AllowedImageTypes are the content types accepted by Upload.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type UploadResult struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

type UploadService struct {
	storage  storage.ObjectStorage
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(store storage.ObjectStorage, maxBytes int64) *UploadService {
	return &UploadService{storage: store, maxBytes: maxBytes, now: time.Now}
}

// Upload validates an image and stores it under the caller's prefix. Size and
// type are checked before the storage provider is contacted.
func (s *UploadService) Upload(ctx context.Context, identity models.Identity, file *multipart.FileHeader) (*UploadResult, error) {
	if identity.Subject == "" {
		return nil, ErrUnauthenticated
	}
	if file == nil {
		return nil, ErrFileMissing
	}
	if file.Size > s.maxBytes {
		return nil, fmt.Errorf("%w (max %dMB)", ErrFileTooLarge, s.maxBytes/(1024*1024))
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileMissing, err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	contentType := mtype.String()
	if !mimetype.EqualsAny(contentType, AllowedImageTypes...) {
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrFileTypeNotSupported, contentType, strings.Join(AllowedImageTypes, ", "))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	if s.storage == nil {
		return nil, ErrStorageNotConfigured
	}

	objectName := s.objectName(identity.Subject, mtype.Extension())
	url, err := s.storage.Put(ctx, objectName, f, file.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	slog.InfoContext(ctx, "Uploaded image", "object", objectName, "size", file.Size, "content_type", contentType)
	return &UploadResult{FileName: objectName, URL: url}, nil
}

func (s *UploadService) objectName(subject, ext string) string {
	prefix := strings.NewReplacer("/", "_", "\\", "_").Replace(subject)
	return fmt.Sprintf("%s/%d-%s%s", prefix, s.now().UnixMilli(), uuid.NewString(), ext)
}
