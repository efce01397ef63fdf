package listing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sickboy81/saphira/internal/catalog"
	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrNotFound      = errors.New("profile not found")
)

const cacheNamespace = "listing"

type ProfileStore interface {
	SearchListings(ctx context.Context, q pgrepo.ListingQuery) ([]model.Profile, error)
	GetByID(ctx context.Context, id string) (model.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
}

type MediaStore interface {
	ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]model.Media, error)
	ListByProfile(ctx context.Context, profileID string) ([]model.Media, error)
}

type URLResolver interface {
	Resolve(ctx context.Context, items []model.Media) ([]model.Media, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, namespace string) (int64, error)
	Bump(ctx context.Context, namespace string) error
}

type Options struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	MaxLookupIDs int
	Bounds       filters.Bounds
}

// Page is one page of listings. Fallback marks a page served from the
// built-in catalog because the backend could not be queried.
type Page struct {
	Items      []model.Profile `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	Fallback   bool            `json:"-"`
}

// LookupResult separates "nothing found" (empty Items) from "backend
// unavailable" (Unavailable=true).
type LookupResult struct {
	Items       []model.Profile
	Unavailable bool
}

type Service struct {
	profiles ProfileStore
	media    MediaStore
	resolver URLResolver
	cache    Cache
	catalog  *catalog.Catalog
	log      *zap.Logger
	opts     Options
}

// pageCursor carries created_at in microseconds, the precision Postgres
// stores, so rows tied with the last row of a page are not skipped.
type pageCursor struct {
	CreatedAt int64  `json:"created_at_us"`
	ID        string `json:"id"`
}

func NewService(profiles ProfileStore, media MediaStore, resolver URLResolver, cache Cache, fallback *catalog.Catalog, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 24
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.MaxLookupIDs <= 0 {
		opts.MaxLookupIDs = 200
	}
	if opts.Bounds == (filters.Bounds{}) {
		opts.Bounds = filters.DefaultBounds()
	}

	return &Service{
		profiles: profiles,
		media:    media,
		resolver: resolver,
		cache:    cache,
		catalog:  fallback,
		log:      log,
		opts:     opts,
	}
}

func (s *Service) Bounds() filters.Bounds {
	return s.opts.Bounds
}

func (s *Service) Search(ctx context.Context, state filters.State, cursor string, limit int) (Page, error) {
	if err := state.Validate(s.opts.Bounds); err != nil {
		return Page{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	limit = s.clampLimit(limit)

	decoded, hasCursor, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	cacheKey := s.cacheKey(ctx, state, cursor, limit)
	if page, ok := s.cachedPage(ctx, cacheKey); ok {
		return page, nil
	}

	query := pgrepo.ListingQuery{
		Filter:    state,
		Bounds:    s.opts.Bounds,
		HasCursor: hasCursor,
		Limit:     limit,
	}
	if hasCursor {
		query.CursorCreatedAt = time.UnixMicro(decoded.CreatedAt).UTC()
		query.CursorID = decoded.ID
	}

	items, err := s.fetchListings(ctx, query)
	if err != nil {
		s.log.Warn("listing fetch failed, serving catalog", zap.Error(err))
		return s.fallbackPage(state, hasCursor, limit), nil
	}

	page := Page{Items: items}
	if len(items) == limit {
		last := items[len(items)-1]
		next, err := encodeCursor(pageCursor{CreatedAt: last.CreatedAt.UnixMicro(), ID: last.ID})
		if err != nil {
			return Page{}, err
		}
		page.NextCursor = next
	}

	s.storePage(ctx, cacheKey, page)
	return page, nil
}

// Details returns a visible advertiser profile with its media.
func (s *Service) Details(ctx context.Context, id string) (model.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Profile{}, ErrValidation
	}
	if catalog.IsMockID(id) {
		if s.catalog != nil {
			if p, ok := s.catalog.Get(id); ok {
				return p, nil
			}
		}
		return model.Profile{}, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.Profile{}, ErrNotFound
	}
	if s.profiles == nil || s.media == nil {
		return model.Profile{}, fmt.Errorf("listing dependencies are not configured")
	}

	var (
		profile model.Profile
		media   []model.Media
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetByID(gctx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrProfileNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		items, err := s.media.ListByProfile(gctx, id)
		if err != nil {
			return fmt.Errorf("list media: %w", err)
		}
		media = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Profile{}, err
	}

	if profile.IsBanned || profile.Role != enums.RoleAdvertiser {
		return model.Profile{}, ErrNotFound
	}

	resolved, err := s.resolve(ctx, media)
	if err != nil {
		return model.Profile{}, err
	}
	profile.Media = resolved
	return profile, nil
}

// Lookup resolves ids in request order. Catalog ids never touch the backend.
func (s *Service) Lookup(ctx context.Context, ids []string) (LookupResult, error) {
	ids = dedupeIDs(ids)
	if len(ids) > s.opts.MaxLookupIDs {
		return LookupResult{}, fmt.Errorf("%w: at most %d ids", ErrValidation, s.opts.MaxLookupIDs)
	}

	found := make(map[string]model.Profile, len(ids))
	remote := make([]string, 0, len(ids))
	for _, id := range ids {
		if catalog.IsMockID(id) {
			if s.catalog != nil {
				if p, ok := s.catalog.Get(id); ok {
					found[id] = p
				}
			}
			continue
		}
		if _, err := uuid.Parse(id); err == nil {
			remote = append(remote, id)
		}
	}

	result := LookupResult{}
	if len(remote) > 0 {
		items, err := s.lookupRemote(ctx, remote)
		if err != nil {
			s.log.Warn("favorites lookup failed", zap.Int("ids", len(remote)), zap.Error(err))
			result.Unavailable = true
		}
		for _, p := range items {
			found[p.ID] = p
		}
	}

	result.Items = make([]model.Profile, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			result.Items = append(result.Items, p)
		}
	}
	return result, nil
}

// Invalidate drops every cached listing page.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Bump(ctx, cacheNamespace); err != nil {
		return fmt.Errorf("invalidate listing cache: %w", err)
	}
	return nil
}

func (s *Service) lookupRemote(ctx context.Context, ids []string) ([]model.Profile, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("listing dependencies are not configured")
	}
	items, err := s.profiles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	visible := make([]model.Profile, 0, len(items))
	for _, p := range items {
		if p.Role == enums.RoleAdvertiser && !p.IsBanned {
			visible = append(visible, p)
		}
	}
	if err := s.attachMedia(ctx, visible); err != nil {
		s.log.Warn("attach media to favorites failed", zap.Error(err))
	}
	return visible, nil
}

func (s *Service) fetchListings(ctx context.Context, q pgrepo.ListingQuery) ([]model.Profile, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("listing dependencies are not configured")
	}
	items, err := s.profiles.SearchListings(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.attachMedia(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) attachMedia(ctx context.Context, items []model.Profile) error {
	if len(items) == 0 || s.media == nil {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	grouped, err := s.media.ListByProfiles(ctx, ids)
	if err != nil {
		return fmt.Errorf("list media: %w", err)
	}
	for i := range items {
		resolved, err := s.resolve(ctx, grouped[items[i].ID])
		if err != nil {
			return err
		}
		items[i].Media = resolved
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, items []model.Media) ([]model.Media, error) {
	if len(items) == 0 {
		return []model.Media{}, nil
	}
	if s.resolver == nil {
		return items, nil
	}
	return s.resolver.Resolve(ctx, items)
}

func (s *Service) fallbackPage(state filters.State, hasCursor bool, limit int) Page {
	page := Page{Items: []model.Profile{}, Fallback: true}
	if hasCursor || s.catalog == nil {
		return page
	}
	page.Items = s.catalog.Search(state, s.opts.Bounds, limit)
	return page
}

func (s *Service) cacheKey(ctx context.Context, state filters.State, cursor string, limit int) string {
	if s.cache == nil {
		return ""
	}
	gen, err := s.cache.Generation(ctx, cacheNamespace)
	if err != nil {
		s.log.Warn("listing cache generation unavailable", zap.Error(err))
		return ""
	}
	return cacheNamespace + ":" + strconv.FormatInt(gen, 10) + ":" + state.CacheKey() + ":" + cursor + ":" + strconv.Itoa(limit)
}

func (s *Service) cachedPage(ctx context.Context, key string) (Page, bool) {
	if key == "" {
		return Page{}, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("listing cache read failed", zap.Error(err))
		return Page{}, false
	}
	if !ok {
		return Page{}, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		s.log.Warn("listing cache entry is corrupt", zap.Error(err))
		return Page{}, false
	}
	if page.Items == nil {
		page.Items = []model.Profile{}
	}
	return page, true
}

func (s *Service) storePage(ctx context.Context, key string, page Page) {
	if key == "" {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		s.log.Warn("encode listing page", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
		s.log.Warn("listing cache write failed", zap.Error(err))
	}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func decodeCursor(raw string) (pageCursor, bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return pageCursor{}, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}
	if cursor.CreatedAt <= 0 {
		return pageCursor{}, false, ErrInvalidCursor
	}
	if _, err := uuid.Parse(cursor.ID); err != nil {
		return pageCursor{}, false, ErrInvalidCursor
	}

	return cursor, true, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("marshal listing cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
