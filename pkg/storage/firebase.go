package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
)

const firebasePublicBaseURL = "https://storage.googleapis.com"

// FirebaseStorage writes objects to the Firebase (Cloud Storage) bucket.
type FirebaseStorage struct {
	bucket     *gcs.BucketHandle
	bucketName string
	baseURL    string
}

func NewFirebaseStorage(client *fbstorage.Client, bucketName, publicBaseURL string) (*FirebaseStorage, error) {
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("firebase storage bucket: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = firebasePublicBaseURL
	}
	return &FirebaseStorage{bucket: bucket, bucketName: bucketName, baseURL: publicBaseURL}, nil
}

// Put never overwrites an existing object.
func (s *FirebaseStorage) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	w := s.bucket.Object(objectName).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl

	if _, err := io.CopyN(w, r, size); err != nil && err != io.EOF {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return objectURL(s.baseURL, s.bucketName, objectName), nil
}
