package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sickboy81/saphira/internal/filters"
	listingsvc "github.com/sickboy81/saphira/internal/services/listing"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

type ProfilesHandler struct {
	service *listingsvc.Service
}

func NewProfilesHandler(service *listingsvc.Service) *ProfilesHandler {
	return &ProfilesHandler{service: service}
}

func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	query := r.URL.Query()
	state, err := filters.DecodeQuery(query, h.service.Bounds())
	if err != nil {
		writeBadRequest(w, "INVALID_FILTER", err.Error())
		return
	}

	page, err := h.service.Search(r.Context(), state, query.Get("cursor"), parseIntOrDefault(query.Get("limit"), 0))
	if err != nil {
		handleListingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileListResponse{
		Items:      mapProfiles(page.Items),
		NextCursor: page.NextCursor,
		Fallback:   page.Fallback,
	})
}

func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	profile, err := h.service.Details(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		handleListingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapProfile(profile))
}

func (h *ProfilesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LISTING_SERVICE_UNAVAILABLE", "listing service is unavailable")
		return
	}

	var req dto.LookupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Lookup(r.Context(), req.IDs)
	if err != nil {
		handleListingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LookupResponse{
		Items:       mapProfiles(res.Items),
		Unavailable: res.Unavailable,
	})
}

func handleListingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, listingsvc.ErrInvalidCursor):
		writeBadRequest(w, "INVALID_CURSOR", "invalid cursor")
	case errors.Is(err, listingsvc.ErrNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
