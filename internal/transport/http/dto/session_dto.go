package dto

import "time"

type SessionResponse struct {
	Session *SessionInfo `json:"session"`
	Role    *string      `json:"role"`
}

type SessionInfo struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RoleResponse struct {
	UserID string  `json:"user_id"`
	Role   *string `json:"role"`
}
