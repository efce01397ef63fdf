package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sickboy81/saphira/internal/catalog"
	"github.com/sickboy81/saphira/internal/domain/model"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
	listingsvc "github.com/sickboy81/saphira/internal/services/listing"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
)

type failingProfileStore struct{}

func (failingProfileStore) SearchListings(context.Context, pgrepo.ListingQuery) ([]model.Profile, error) {
	return nil, errors.New("connection refused")
}

func (failingProfileStore) GetByID(context.Context, string) (model.Profile, error) {
	return model.Profile{}, errors.New("connection refused")
}

func (failingProfileStore) ListByIDs(context.Context, []string) ([]model.Profile, error) {
	return nil, errors.New("connection refused")
}

func newProfilesHandler(t *testing.T) *ProfilesHandler {
	t.Helper()
	fallback, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	svc := listingsvc.NewService(failingProfileStore{}, nil, nil, nil, fallback, zap.NewNop(), listingsvc.Options{})
	return NewProfilesHandler(svc)
}

func TestProfilesListFallsBackToCatalog(t *testing.T) {
	handler := newProfilesHandler(t)

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles?state=RJ", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var resp dto.ProfileListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Fallback || len(resp.Items) == 0 {
		t.Fatalf("expected fallback items, got %+v", resp)
	}
	for _, item := range resp.Items {
		if item.Attributes.State != "RJ" {
			t.Fatalf("fallback item outside filter: %+v", item)
		}
	}
}

func TestProfilesListRejectsInvalidFilter(t *testing.T) {
	handler := newProfilesHandler(t)

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/v1/profiles?city=Campinas", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestProfilesLookupReportsUnavailable(t *testing.T) {
	handler := newProfilesHandler(t)

	body := strings.NewReader(`{"ids":["mock-1","11111111-1111-1111-1111-111111111111"]}`)
	rr := httptest.NewRecorder()
	handler.Lookup(rr, httptest.NewRequest(http.MethodPost, "/v1/profiles/lookup", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var resp dto.LookupResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Unavailable || len(resp.Items) != 1 || resp.Items[0].ID != "mock-1" {
		t.Fatalf("unexpected lookup response: %+v", resp)
	}
}

func TestProfilesGetUnknownMock(t *testing.T) {
	handler := newProfilesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/mock-999", nil)
	req = req.WithContext(withURLParam(req.Context(), "id", "mock-999"))
	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}
