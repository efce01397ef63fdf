package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sickboy81/saphira/internal/domain/enums"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	"github.com/sickboy81/saphira/internal/session"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

type SessionHandler struct {
	auth *authsvc.Service
}

func NewSessionHandler(auth *authsvc.Service) *SessionHandler {
	return &SessionHandler{auth: auth}
}

// Get reports the caller's session and role. Anonymous callers get nulls.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := session.SnapshotFromContext(r.Context())

	resp := dto.SessionResponse{Role: roleString(snap.Role)}
	if snap.Session != nil {
		resp.Session = &dto.SessionInfo{
			UserID:    snap.Session.UserID,
			Email:     snap.Session.Email,
			ExpiresAt: snap.Session.ExpiresAt,
		}
	}
	httperrors.Write(w, http.StatusOK, resp)
}

// Role is the keyed role read. Callers may read their own role; super
// admins may read anyone's.
func (h *SessionHandler) Role(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	targetID := strings.TrimSpace(chi.URLParam(r, "id"))
	if targetID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}
	if targetID != identity.UserID {
		snap := session.SnapshotFromContext(r.Context())
		if snap.Role == nil || *snap.Role != enums.RoleSuperAdmin {
			writeForbidden(w, "FORBIDDEN", "cannot read another user's role")
			return
		}
	}

	role, err := h.auth.Role(r.Context(), targetID)
	if err != nil {
		writeInternal(w, "ROLE_LOOKUP_FAILED", "role lookup failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RoleResponse{UserID: targetID, Role: roleString(role)})
}
