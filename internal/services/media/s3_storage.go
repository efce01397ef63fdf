package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// S3Storage keeps media objects in one bucket. The bucket is created on the
// first upload; a failed check is retried on the next one.
type S3Storage struct {
	client *minio.Client
	bucket string

	mu    sync.Mutex
	ready bool
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: strings.TrimSpace(bucket)}
}

func (s *S3Storage) Put(ctx context.Context, obj Object) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if obj.Key == "" || obj.Body == nil || obj.Size <= 0 {
		return ErrValidation
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		CacheControl: "private, max-age=86400",
		UserMetadata: map[string]string{"profile-id": obj.ProfileID},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", obj.Key, err)
	}
	return nil
}

// PresignGet signs a download link that browsers render inline.
func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}

	params := url.Values{}
	params.Set("response-content-disposition", "inline")
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
	}
	s.ready = true
	return nil
}
