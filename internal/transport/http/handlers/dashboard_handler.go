package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	dashboardsvc "github.com/sickboy81/saphira/internal/services/dashboard"
	mediasvc "github.com/sickboy81/saphira/internal/services/media"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

type DashboardHandler struct {
	service   *dashboardsvc.Service
	maxUpload int64
}

func NewDashboardHandler(service *dashboardsvc.Service, maxUpload int64) *DashboardHandler {
	if maxUpload <= 0 {
		maxUpload = mediasvc.DefaultMaxUpload
	}
	return &DashboardHandler{service: service, maxUpload: maxUpload}
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DASHBOARD_SERVICE_UNAVAILABLE", "dashboard service is unavailable")
		return
	}

	overview, err := h.service.Overview(r.Context(), identity.UserID)
	if err != nil {
		handleDashboardError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DashboardOverviewResponse{
		Profile:    mapProfile(overview.Profile),
		ImageCount: overview.ImageCount,
		VideoCount: overview.VideoCount,
		Missing:    overview.Missing,
		Complete:   overview.Complete,
	})
}

func (h *DashboardHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DASHBOARD_SERVICE_UNAVAILABLE", "dashboard service is unavailable")
		return
	}

	var req dto.DashboardProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), identity.UserID, dashboardsvc.UpdateInput{
		DisplayName: req.DisplayName,
		Attributes:  req.Attributes,
	})
	if err != nil {
		handleDashboardError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, mapProfile(profile))
}

func (h *DashboardHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DASHBOARD_SERVICE_UNAVAILABLE", "dashboard service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	media, err := h.service.UploadMedia(r.Context(), identity.UserID, header.Filename, contentType, file, header.Size)
	if err != nil {
		handleDashboardError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, mapMediaItem(media))
}

func handleDashboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboardsvc.ErrValidation), errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, mediasvc.ErrUnsupportedType):
		writeBadRequest(w, "UNSUPPORTED_MEDIA_TYPE", "only images and videos are accepted")
	case errors.Is(err, mediasvc.ErrTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{Code: "MEDIA_TOO_LARGE", Message: "file is too large"})
	case errors.Is(err, dashboardsvc.ErrNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
