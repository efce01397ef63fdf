package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/catalog"
	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/filters"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
	redrepo "github.com/sickboy81/saphira/internal/repo/redis"
	"github.com/sickboy81/saphira/internal/services/listing"
)

const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
)

type profileStoreStub struct {
	mu       sync.Mutex
	profiles []model.Profile
	err      error
	searches int
	lastQ    pgrepo.ListingQuery
}

func (s *profileStoreStub) SearchListings(_ context.Context, q pgrepo.ListingQuery) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	s.lastQ = q
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Profile, 0, q.Limit)
	for _, p := range s.profiles {
		if len(out) == q.Limit {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *profileStoreStub) GetByID(_ context.Context, id string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.Profile{}, s.err
	}
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Profile{}, pgrepo.ErrProfileNotFound
}

func (s *profileStoreStub) ListByIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		for _, p := range s.profiles {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type mediaStoreStub struct {
	items map[string][]model.Media
}

func (m *mediaStoreStub) ListByProfiles(_ context.Context, ids []string) (map[string][]model.Media, error) {
	out := make(map[string][]model.Media, len(ids))
	for _, id := range ids {
		out[id] = m.items[id]
	}
	return out, nil
}

func (m *mediaStoreStub) ListByProfile(_ context.Context, id string) ([]model.Media, error) {
	return m.items[id], nil
}

type resolverStub struct{}

func (resolverStub) Resolve(_ context.Context, items []model.Media) ([]model.Media, error) {
	out := make([]model.Media, 0, len(items))
	for _, item := range items {
		item.URL = "https://signed.local/" + item.URL
		out = append(out, item)
	}
	return out, nil
}

func advertiser(id, name string, created time.Time) model.Profile {
	return model.Profile{
		ID:          id,
		Role:        enums.RoleAdvertiser,
		DisplayName: name,
		CreatedAt:   created,
		Attributes:  model.ProfileAttributes{State: "SP", City: "São Paulo"},
	}
}

func newService(t *testing.T, store *profileStoreStub) (*listing.Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	fallback, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	media := &mediaStoreStub{items: map[string][]model.Media{
		idA: {{ID: "m1", ProfileID: idA, URL: "profiles/a/image/1.jpg", Type: enums.MediaTypeImage}},
	}}

	svc := listing.NewService(store, media, resolverStub{}, redrepo.NewCacheRepo(client), fallback, zap.NewNop(), listing.Options{
		CacheTTL:     time.Minute,
		DefaultLimit: 2,
		MaxLimit:     10,
	})
	return svc, mr
}

func TestSearchPaginatesAndCaches(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &profileStoreStub{profiles: []model.Profile{
		advertiser(idA, "Ana", base.Add(2*time.Hour)),
		advertiser(idB, "Bia", base.Add(time.Hour)),
		advertiser(idC, "Cris", base),
	}}
	svc, _ := newService(t, store)
	ctx := context.Background()

	state := filters.Default()
	state.Location = filters.Location{State: "SP"}

	page, err := svc.Search(ctx, state, "", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Fallback {
		t.Fatalf("unexpected fallback page")
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected page: items=%d cursor=%q", len(page.Items), page.NextCursor)
	}
	if got := page.Items[0].MainImage(); got != "https://signed.local/profiles/a/image/1.jpg" {
		t.Fatalf("unexpected main image: %s", got)
	}
	if store.lastQ.Bounds != filters.DefaultBounds() {
		t.Fatalf("query should carry the service bounds, got %+v", store.lastQ.Bounds)
	}

	if _, err := svc.Search(ctx, state, "", 0); err != nil {
		t.Fatalf("cached search: %v", err)
	}
	if store.searches != 1 {
		t.Fatalf("expected cached page, got %d backend searches", store.searches)
	}

	if _, err := svc.Search(ctx, state, page.NextCursor, 0); err != nil {
		t.Fatalf("next page: %v", err)
	}
	if !store.lastQ.HasCursor || store.lastQ.CursorID != idB || !store.lastQ.CursorCreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected cursor query: %+v", store.lastQ)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := svc.Search(ctx, state, "", 0); err != nil {
		t.Fatalf("search after invalidate: %v", err)
	}
	if store.searches != 3 {
		t.Fatalf("unexpected backend searches after invalidate: got %d want 3", store.searches)
	}
}

func TestSearchCursorKeepsMicroseconds(t *testing.T) {
	tied := time.Date(2026, 1, 2, 3, 4, 5, 123456000, time.UTC)
	store := &profileStoreStub{profiles: []model.Profile{
		advertiser(idC, "Cris", tied),
		advertiser(idB, "Bia", tied),
		advertiser(idA, "Ana", tied),
	}}
	svc, _ := newService(t, store)
	ctx := context.Background()

	state := filters.Default()
	page, err := svc.Search(ctx, state, "", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Items) != 1 || page.NextCursor == "" {
		t.Fatalf("unexpected page: items=%d cursor=%q", len(page.Items), page.NextCursor)
	}
	last := page.Items[0]

	if _, err := svc.Search(ctx, state, page.NextCursor, 1); err != nil {
		t.Fatalf("next page: %v", err)
	}
	if !store.lastQ.CursorCreatedAt.Equal(last.CreatedAt) || store.lastQ.CursorID != last.ID {
		t.Fatalf("cursor lost precision: row created_at=%s cursor created_at=%s",
			last.CreatedAt.Format(time.RFC3339Nano), store.lastQ.CursorCreatedAt.Format(time.RFC3339Nano))
	}
}

func TestSearchFallsBackToCatalog(t *testing.T) {
	store := &profileStoreStub{err: errors.New("connection refused")}
	svc, _ := newService(t, store)

	state := filters.Default()
	state.Location = filters.Location{State: "SP", City: "Campinas"}

	page, err := svc.Search(context.Background(), state, "", 10)
	if err != nil {
		t.Fatalf("fallback search should not fail: %v", err)
	}
	if !page.Fallback {
		t.Fatalf("expected fallback page")
	}
	if len(page.Items) != 1 || page.Items[0].ID != "mock-2" {
		t.Fatalf("unexpected fallback items: %+v", page.Items)
	}
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t, &profileStoreStub{})

	bad := filters.Default()
	bad.Location = filters.Location{City: "Campinas"}
	if _, err := svc.Search(context.Background(), bad, "", 0); !errors.Is(err, listing.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Search(context.Background(), filters.Default(), "%%%", 0); !errors.Is(err, listing.ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	banned := advertiser(idB, "Bia", time.Now())
	banned.IsBanned = true
	visitor := advertiser(idC, "Cris", time.Now())
	visitor.Role = enums.RoleVisitor
	store := &profileStoreStub{profiles: []model.Profile{advertiser(idA, "Ana", time.Now()), banned, visitor}}
	svc, _ := newService(t, store)
	ctx := context.Background()

	got, err := svc.Details(ctx, idA)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if len(got.Media) != 1 || got.Media[0].URL != "https://signed.local/profiles/a/image/1.jpg" {
		t.Fatalf("unexpected media: %+v", got.Media)
	}

	for _, id := range []string{idB, idC, "not-a-uuid", "mock-404"} {
		if _, err := svc.Details(ctx, id); !errors.Is(err, listing.ErrNotFound) {
			t.Fatalf("details(%s): expected ErrNotFound, got %v", id, err)
		}
	}

	mock, err := svc.Details(ctx, "mock-1")
	if err != nil || mock.ID != "mock-1" {
		t.Fatalf("unexpected catalog details: %+v err=%v", mock, err)
	}
}

func TestLookupSeparatesEmptyFromUnavailable(t *testing.T) {
	store := &profileStoreStub{profiles: []model.Profile{advertiser(idA, "Ana", time.Now())}}
	svc, _ := newService(t, store)
	ctx := context.Background()

	res, err := svc.Lookup(ctx, []string{"mock-3", idA, idA, idB, "garbage"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var gotIDs []string
	for _, p := range res.Items {
		gotIDs = append(gotIDs, p.ID)
	}
	if diff := cmp.Diff([]string{"mock-3", idA}, gotIDs); diff != "" {
		t.Fatalf("unexpected ids (-want +got):\n%s", diff)
	}
	if res.Unavailable {
		t.Fatalf("healthy lookup reported unavailable")
	}

	empty, err := svc.Lookup(ctx, []string{idB})
	if err != nil || empty.Unavailable || len(empty.Items) != 0 {
		t.Fatalf("expected empty available result, got %+v err=%v", empty, err)
	}

	store.err = errors.New("timeout")
	down, err := svc.Lookup(ctx, []string{"mock-1", idA})
	if err != nil {
		t.Fatalf("lookup with backend down: %v", err)
	}
	if !down.Unavailable || len(down.Items) != 1 || down.Items[0].ID != "mock-1" {
		t.Fatalf("unexpected degraded result: %+v", down)
	}
}
