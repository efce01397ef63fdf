package dto

import (
	"time"

	"github.com/sickboy81/saphira/internal/domain/model"
)

type MediaResponse struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type ProfileResponse struct {
	ID          string                  `json:"id"`
	Role        string                  `json:"role"`
	DisplayName string                  `json:"display_name"`
	Rating      float64                 `json:"rating"`
	IsOnline    bool                    `json:"is_online"`
	MainImage   string                  `json:"main_image,omitempty"`
	Attributes  model.ProfileAttributes `json:"attributes"`
	Media       []MediaResponse         `json:"media"`
	CreatedAt   time.Time               `json:"created_at"`
}

type ProfileListResponse struct {
	Items      []ProfileResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	Fallback   bool              `json:"fallback"`
}

type LookupRequest struct {
	IDs []string `json:"ids"`
}

type LookupResponse struct {
	Items       []ProfileResponse `json:"items"`
	Unavailable bool              `json:"unavailable"`
}
