package model

import (
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
)

type Media struct {
	ID        string          `json:"id"`
	ProfileID string          `json:"profile_id"`
	URL       string          `json:"url"`
	Type      enums.MediaType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
