package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
)

const cacheControl = "public, max-age=3600"

// ObjectStorage stores uploaded binaries and issues their public URL.
type ObjectStorage interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}

// objectURL joins base, bucket and the escaped object name segments.
func objectURL(base, bucket, objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
