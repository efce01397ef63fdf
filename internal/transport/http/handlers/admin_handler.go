package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	adminsvc "github.com/sickboy81/saphira/internal/services/admin"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

type AdminHandler struct {
	service *adminsvc.Service
}

func NewAdminHandler(service *adminsvc.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "ADMIN_SERVICE_UNAVAILABLE", "admin service is unavailable")
		return
	}

	items, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleAdminError(w, err)
		return
	}

	resp := dto.AdminUsersResponse{Items: make([]dto.AdminUserResponse, 0, len(items))}
	for _, p := range items {
		resp.Items = append(resp.Items, dto.AdminUserResponse{
			ID:          p.ID,
			Role:        string(p.Role),
			DisplayName: p.DisplayName,
			IsBanned:    p.IsBanned,
			CreatedAt:   p.CreatedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *AdminHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ADMIN_SERVICE_UNAVAILABLE", "admin service is unavailable")
		return
	}

	targetID := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.service.SetBanned(r.Context(), identity.UserID, targetID, banned); err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminBanResponse{UserID: targetID, IsBanned: banned})
}

func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adminsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, adminsvc.ErrSelfTarget):
		writeBadRequest(w, "SELF_TARGET", "you cannot change your own account")
	case errors.Is(err, adminsvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		writeInternal(w, "ADMIN_ACTION_FAILED", "the action could not be completed, please try again")
	}
}
