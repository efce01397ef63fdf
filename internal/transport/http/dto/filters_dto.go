package dto

import "github.com/sickboy81/saphira/internal/filters"

type FilterBoundsResponse struct {
	PriceMin  int `json:"price_min"`
	PriceMax  int `json:"price_max"`
	PriceStep int `json:"price_step"`
	AgeMin    int `json:"age_min"`
	AgeMax    int `json:"age_max"`
}

type FilterOptionsResponse struct {
	Locations      map[string][]string  `json:"locations"`
	Genders        []string             `json:"genders"`
	HairColors     []string             `json:"hair_colors"`
	BodyTypes      []string             `json:"body_types"`
	Ethnicities    []string             `json:"ethnicities"`
	Services       []string             `json:"services"`
	PaymentMethods []string             `json:"payment_methods"`
	Bounds         FilterBoundsResponse `json:"bounds"`
	Default        filters.State        `json:"default"`
}
