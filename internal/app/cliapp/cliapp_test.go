package cliapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/client"
	"github.com/sickboy81/saphira/internal/config"
	"github.com/sickboy81/saphira/internal/devicestore"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/favorites"
	"github.com/sickboy81/saphira/internal/filters"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
)

type testEnv struct {
	cfg        config.Config
	store      *devicestore.FileStore
	adminCalls atomic.Int32
	lastQuery  atomic.Value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func strPtr(s string) *string {
	return &s
}

func newTestEnv(t *testing.T, role string) *testEnv {
	t.Helper()
	env := &testEnv{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/users/u1/role", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, dto.RoleResponse{UserID: "u1", Role: strPtr(role)})
	})
	mux.HandleFunc("/v1/admin/users", func(w http.ResponseWriter, _ *http.Request) {
		env.adminCalls.Add(1)
		writeJSON(w, http.StatusOK, dto.AdminUsersResponse{Items: []dto.AdminUserResponse{
			{ID: "u2", Role: "advertiser", DisplayName: "Bia", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		}})
	})
	mux.HandleFunc("/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		env.lastQuery.Store(r.URL.RawQuery)
		writeJSON(w, http.StatusOK, dto.ProfileListResponse{Items: []dto.ProfileResponse{
			{ID: "mock-2", Role: "advertiser", DisplayName: "Bia Campinas", Attributes: profileAttrs("SP", "Campinas")},
		}})
	})
	mux.HandleFunc("/v1/profiles/lookup", func(w http.ResponseWriter, r *http.Request) {
		var req dto.LookupRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := dto.LookupResponse{Items: []dto.ProfileResponse{}}
		for _, id := range req.IDs {
			resp.Items = append(resp.Items, dto.ProfileResponse{ID: id, Role: "advertiser", DisplayName: "Profile " + id})
		}
		writeJSON(w, http.StatusOK, resp)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.Client.BaseURL = ts.URL
	cfg.Client.Timeout = 5 * time.Second
	cfg.Client.RetryMax = 0
	cfg.Client.StorePath = filepath.Join(t.TempDir(), "device.json")
	env.cfg = cfg
	env.store = devicestore.NewFileStore(cfg.Client.StorePath)
	return env
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	raw, err := json.Marshal(client.Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		UserID:       "u1",
		Email:        "ana@example.com",
	})
	if err != nil {
		t.Fatalf("encode tokens: %v", err)
	}
	if err := e.store.Set(context.Background(), client.TokenStorageKey, raw); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := New(e.cfg, zap.NewNop(), &out)
	defer app.Close()

	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) storedFilters(t *testing.T) filters.State {
	t.Helper()
	raw, ok, err := e.store.Get(context.Background(), FiltersStorageKey)
	if err != nil || !ok {
		t.Fatalf("read stored filters: ok=%v err=%v", ok, err)
	}
	var s filters.State
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode stored filters: %v", err)
	}
	return s
}

func profileAttrs(state, city string) model.ProfileAttributes {
	return model.ProfileAttributes{State: state, City: city}
}

func TestFiltersSetPersistsAndStateClearsCity(t *testing.T) {
	env := newTestEnv(t, "visitor")

	if _, err := env.run(t, "filters", "set", "--state", "SP", "--city", "Campinas"); err != nil {
		t.Fatalf("filters set: %v", err)
	}
	got := env.storedFilters(t)
	if got.Location != (filters.Location{State: "SP", City: "Campinas"}) {
		t.Fatalf("unexpected location: %+v", got.Location)
	}

	if _, err := env.run(t, "filters", "set", "--state", "RJ"); err != nil {
		t.Fatalf("filters set: %v", err)
	}
	got = env.storedFilters(t)
	if got.Location != (filters.Location{State: "RJ"}) {
		t.Fatalf("state change must clear city, got %+v", got.Location)
	}
}

func TestFiltersSetRejectsInvalidValues(t *testing.T) {
	env := newTestEnv(t, "visitor")

	if _, err := env.run(t, "filters", "set", "--city", "Campinas"); !errors.Is(err, filters.ErrInvalidFilter) {
		t.Fatalf("expected invalid filter, got %v", err)
	}
	if _, ok, _ := env.store.Get(context.Background(), FiltersStorageKey); ok {
		t.Fatalf("rejected filter must not be persisted")
	}
}

func TestFiltersToggleTwiceRestores(t *testing.T) {
	env := newTestEnv(t, "visitor")

	if _, err := env.run(t, "filters", "toggle", "services", "Massagem"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if diff := cmp.Diff([]string{"Massagem"}, env.storedFilters(t).Services); diff != "" {
		t.Fatalf("unexpected services (-want +got):\n%s", diff)
	}

	if _, err := env.run(t, "filters", "toggle", "services", "Massagem"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if diff := cmp.Diff(filters.Default(), env.storedFilters(t)); diff != "" {
		t.Fatalf("toggle twice must restore defaults (-want +got):\n%s", diff)
	}

	if _, err := env.run(t, "filters", "toggle", "services", "Karaoke"); err == nil {
		t.Fatalf("expected unknown value error")
	}
}

func TestBrowseSendsSavedFilters(t *testing.T) {
	env := newTestEnv(t, "visitor")
	if _, err := env.run(t, "filters", "set", "--state", "SP", "--city", "Campinas"); err != nil {
		t.Fatalf("filters set: %v", err)
	}

	out, err := env.run(t, "browse")
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if !strings.Contains(out, "Bia Campinas") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	query, _ := env.lastQuery.Load().(string)
	if !strings.Contains(query, "state=SP") || !strings.Contains(query, "city=Campinas") {
		t.Fatalf("filters not sent: %s", query)
	}
}

func TestAdminRequiresSuperAdmin(t *testing.T) {
	env := newTestEnv(t, "advertiser")
	env.signIn(t)

	if _, err := env.run(t, "admin", "users"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if env.adminCalls.Load() != 0 {
		t.Fatalf("admin endpoint must not be called")
	}
}

func TestAdminUsersForSuperAdmin(t *testing.T) {
	env := newTestEnv(t, "super_admin")
	env.signIn(t)

	out, err := env.run(t, "admin", "users")
	if err != nil {
		t.Fatalf("admin users: %v", err)
	}
	if !strings.Contains(out, "Bia") || env.adminCalls.Load() != 1 {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDashboardRequiresSignIn(t *testing.T) {
	env := newTestEnv(t, "advertiser")

	if _, err := env.run(t, "dashboard", "overview"); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
}

func TestFavoritesRemovePersists(t *testing.T) {
	env := newTestEnv(t, "visitor")

	for _, id := range []string{"a", "b"} {
		if _, err := env.run(t, "favorites", "add", id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if _, err := env.run(t, "favorites", "remove", "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	raw, _, err := env.store.Get(context.Background(), favorites.StorageKey)
	if err != nil {
		t.Fatalf("read favorites: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		t.Fatalf("decode favorites: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, ids); diff != "" {
		t.Fatalf("unexpected stored ids (-want +got):\n%s", diff)
	}

	out, err := env.run(t, "favorites", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Profile a") || strings.Contains(out, "Profile b") {
		t.Fatalf("unexpected listing:\n%s", out)
	}
}

func TestFavoritesRemoveUnknownID(t *testing.T) {
	env := newTestEnv(t, "visitor")

	if _, err := env.run(t, "favorites", "add", "a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := env.run(t, "favorites", "remove", "zz")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(out, "zz is not a favorite") || strings.Contains(out, "Removed") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	raw, _, err := env.store.Get(context.Background(), favorites.StorageKey)
	if err != nil {
		t.Fatalf("read favorites: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		t.Fatalf("decode favorites: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, ids); diff != "" {
		t.Fatalf("unexpected stored ids (-want +got):\n%s", diff)
	}
}
