package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"agenthub-system/config"
)

// ProfileStore keeps agent profile pictures in a single public-read
// bucket and hands out stable public URLs for them.
type ProfileStore struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

func NewProfileStore(cfg config.StorageConfig) (*ProfileStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &ProfileStore{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// Upload streams an object into the bucket and returns its public URL.
// Existing objects under the same name are replaced.
func (s *ProfileStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.PublicURL(objectName), nil
}

func (s *ProfileStore) PublicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, objectName)
}
