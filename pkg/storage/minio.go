package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage writes objects to an S3 compatible bucket.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStorage connects to the endpoint and makes sure the bucket exists.
// publicBaseURL overrides the URL prefix handed back to clients; when empty
// the endpoint itself is used.
func NewMinioStorage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, publicBaseURL string) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		slog.Info("Created MinIO bucket", "bucket", bucket)
	}

	if publicBaseURL == "" {
		protocol := "http"
		if useSSL {
			protocol = "https"
		}
		publicBaseURL = protocol + "://" + endpoint
	}

	return &MinioStorage{client: client, bucket: bucket, baseURL: publicBaseURL}, nil
}

func (s *MinioStorage) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return objectURL(s.baseURL, s.bucket, info.Key), nil
}
