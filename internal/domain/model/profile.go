package model

import (
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
)

type Profile struct {
	ID          string            `json:"id"`
	Role        enums.Role        `json:"role"`
	IsBanned    bool              `json:"is_banned"`
	DisplayName string            `json:"display_name"`
	Rating      float64           `json:"rating"`
	IsOnline    bool              `json:"is_online"`
	Attributes  ProfileAttributes `json:"attributes"`
	Media       []Media           `json:"media,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ProfileAttributes are the advertiser listing fields the filters match against.
type ProfileAttributes struct {
	State          string   `json:"state" yaml:"state"`
	City           string   `json:"city" yaml:"city"`
	Neighborhood   string   `json:"neighborhood" yaml:"neighborhood"`
	Gender         string   `json:"gender" yaml:"gender"`
	Price          int      `json:"price" yaml:"price"`
	Age            int      `json:"age" yaml:"age"`
	HairColor      string   `json:"hair_color" yaml:"hair_color"`
	BodyType       string   `json:"body_type" yaml:"body_type"`
	Ethnicity      string   `json:"ethnicity" yaml:"ethnicity"`
	Services       []string `json:"services" yaml:"services"`
	PaymentMethods []string `json:"payment_methods" yaml:"payment_methods"`
	HasPlace       bool     `json:"has_place" yaml:"has_place"`
	VideoCall      bool     `json:"video_call" yaml:"video_call"`
	Verified       bool     `json:"verified" yaml:"verified"`
	Category       string   `json:"category" yaml:"category"`
	Bio            string   `json:"bio" yaml:"bio"`
}

// MainImage returns the first image url, if any.
func (p Profile) MainImage() string {
	for _, m := range p.Media {
		if m.Type == enums.MediaTypeImage && m.URL != "" {
			return m.URL
		}
	}
	return ""
}
