package dto

import "github.com/sickboy81/saphira/internal/domain/model"

type DashboardOverviewResponse struct {
	Profile    ProfileResponse `json:"profile"`
	ImageCount int             `json:"image_count"`
	VideoCount int             `json:"video_count"`
	Missing    []string        `json:"missing"`
	Complete   bool            `json:"complete"`
}

type DashboardProfileRequest struct {
	DisplayName string                  `json:"display_name"`
	Attributes  model.ProfileAttributes `json:"attributes"`
}
