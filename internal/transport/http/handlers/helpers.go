package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message, Redirect: "/login"})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func roleString(role *enums.Role) *string {
	if role == nil {
		return nil
	}
	value := string(*role)
	return &value
}

func mapMedia(items []model.Media) []dto.MediaResponse {
	out := make([]dto.MediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, mapMediaItem(m))
	}
	return out
}

func mapMediaItem(m model.Media) dto.MediaResponse {
	return dto.MediaResponse{
		ID:        m.ID,
		ProfileID: m.ProfileID,
		URL:       m.URL,
		Type:      string(m.Type),
		CreatedAt: m.CreatedAt,
	}
}

func mapProfile(p model.Profile) dto.ProfileResponse {
	attrs := p.Attributes
	if attrs.Services == nil {
		attrs.Services = []string{}
	}
	if attrs.PaymentMethods == nil {
		attrs.PaymentMethods = []string{}
	}
	return dto.ProfileResponse{
		ID:          p.ID,
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		Rating:      p.Rating,
		IsOnline:    p.IsOnline,
		MainImage:   p.MainImage(),
		Attributes:  attrs,
		Media:       mapMedia(p.Media),
		CreatedAt:   p.CreatedAt,
	}
}

func mapProfiles(items []model.Profile) []dto.ProfileResponse {
	out := make([]dto.ProfileResponse, 0, len(items))
	for _, p := range items {
		out = append(out, mapProfile(p))
	}
	return out
}
