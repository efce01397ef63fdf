package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media too large")
)

const (
	DefaultPresignTTL = 15 * time.Minute
	DefaultMaxUpload  = 20 << 20
)

type Store interface {
	Create(ctx context.Context, m model.Media) (model.Media, error)
	ListByProfile(ctx context.Context, profileID string) ([]model.Media, error)
}

// Object is an upload on its way to object storage.
type Object struct {
	Key         string
	ProfileID   string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ObjectStorage interface {
	Put(ctx context.Context, obj Object) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	PresignTTL time.Duration
	MaxUpload  int64
}

type Service struct {
	store      Store
	storage    ObjectStorage
	presignTTL time.Duration
	maxUpload  int64
	now        func() time.Time
}

func NewService(store Store, storage ObjectStorage, opts Options) *Service {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = DefaultPresignTTL
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	return &Service{
		store:      store,
		storage:    storage,
		presignTTL: opts.PresignTTL,
		maxUpload:  opts.MaxUpload,
		now:        time.Now,
	}
}

func (s *Service) MaxUpload() int64 {
	return s.maxUpload
}

// Upload stores the object, records it for profileID and returns the record
// with a presigned url.
func (s *Service) Upload(ctx context.Context, profileID, fileName, contentType string, body io.Reader, size int64) (model.Media, error) {
	if strings.TrimSpace(profileID) == "" || body == nil || size <= 0 {
		return model.Media{}, ErrValidation
	}
	if size > s.maxUpload {
		return model.Media{}, ErrTooLarge
	}
	mediaType, ok := enums.MediaTypeFromContentType(contentType)
	if !ok {
		return model.Media{}, ErrUnsupportedType
	}
	if s.store == nil || s.storage == nil {
		return model.Media{}, fmt.Errorf("media dependencies are not configured")
	}

	id := uuid.NewString()
	objectKey := buildObjectKey(profileID, id, mediaType, fileName, s.now())
	err := s.storage.Put(ctx, Object{
		Key:         objectKey,
		ProfileID:   profileID,
		ContentType: contentType,
		Size:        size,
		Body:        body,
	})
	if err != nil {
		return model.Media{}, fmt.Errorf("put object: %w", err)
	}

	record, err := s.store.Create(ctx, model.Media{
		ID:        id,
		ProfileID: profileID,
		URL:       objectKey,
		Type:      mediaType,
	})
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return model.Media{}, fmt.Errorf("create media record: %w", err)
	}

	record.URL, err = s.ResolveURL(ctx, record.URL)
	if err != nil {
		return model.Media{}, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, profileID string) ([]model.Media, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("media dependencies are not configured")
	}

	records, err := s.store.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	return s.Resolve(ctx, records)
}

// Resolve returns a copy of items whose object keys are replaced by
// presigned urls. Absolute http(s) urls are kept as they are.
func (s *Service) Resolve(ctx context.Context, items []model.Media) ([]model.Media, error) {
	out := make([]model.Media, 0, len(items))
	for _, item := range items {
		resolved, err := s.ResolveURL(ctx, item.URL)
		if err != nil {
			return nil, err
		}
		item.URL = resolved
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) ResolveURL(ctx context.Context, raw string) (string, error) {
	if raw == "" || isAbsoluteURL(raw) {
		return raw, nil
	}
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}
	signed, err := s.storage.PresignGet(ctx, raw, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign media url: %w", err)
	}
	return signed, nil
}

func isAbsoluteURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}

func buildObjectKey(profileID, id string, mediaType enums.MediaType, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" || len(ext) > 8 {
		ext = ".bin"
	}
	stamp := now.UTC().Format("20060102T150405")
	return fmt.Sprintf("profiles/%s/%s/%s_%s%s", profileID, mediaType, stamp, id, ext)
}
