package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

// GCSImageStore stores blog images in a Google Cloud Storage bucket.
type GCSImageStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSImageStore(client *gcs.Client, bucket string) (*GCSImageStore, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("gcs not configured")
	}
	return &GCSImageStore{client: client, bucket: bucket}, nil
}

// Upload writes r to objectPath and returns its public URL.
func (s *GCSImageStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}

func (s *GCSImageStore) Delete(ctx context.Context, objectPath string) error {
	if objectPath == "" {
		return nil
	}
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}
