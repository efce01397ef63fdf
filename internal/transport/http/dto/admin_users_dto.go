package dto

import "time"

type AdminUserResponse struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	IsBanned    bool      `json:"is_banned"`
	CreatedAt   time.Time `json:"created_at"`
}

type AdminUsersResponse struct {
	Items []AdminUserResponse `json:"items"`
}

type AdminBanResponse struct {
	UserID   string `json:"user_id"`
	IsBanned bool   `json:"is_banned"`
}
