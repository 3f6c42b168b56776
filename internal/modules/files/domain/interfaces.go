package domain

import (
	"context"
	"time"
)

// UploadGrant is everything a client needs to POST one object directly to
// the blob store.
type UploadGrant struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// BlobStore presigns direct-to-storage transfers. The server never proxies
// file bytes.
type BlobStore interface {
	PresignUpload(ctx context.Context, key, contentType string, maxBytes int64, ttl time.Duration) (*UploadGrant, error)
	PresignDownload(ctx context.Context, key, downloadName string, ttl time.Duration) (string, error)
}
