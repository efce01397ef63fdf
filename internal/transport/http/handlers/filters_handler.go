package handlers

import (
	"net/http"

	"github.com/sickboy81/saphira/internal/filters"
	"github.com/sickboy81/saphira/internal/transport/http/dto"
	httperrors "github.com/sickboy81/saphira/internal/transport/http/errors"
)

type FiltersHandler struct {
	bounds filters.Bounds
}

func NewFiltersHandler(bounds filters.Bounds) *FiltersHandler {
	return &FiltersHandler{bounds: bounds}
}

func (h *FiltersHandler) Options(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.FilterOptionsResponse{
		Locations:      filters.Locations,
		Genders:        filters.Genders,
		HairColors:     filters.HairColors,
		BodyTypes:      filters.BodyTypes,
		Ethnicities:    filters.Ethnicities,
		Services:       filters.Services,
		PaymentMethods: filters.PaymentMethods,
		Bounds: dto.FilterBoundsResponse{
			PriceMin:  h.bounds.PriceMin,
			PriceMax:  h.bounds.PriceMax,
			PriceStep: h.bounds.PriceStep,
			AgeMin:    h.bounds.AgeMin,
			AgeMax:    h.bounds.AgeMax,
		},
		Default: filters.DefaultFor(h.bounds),
	})
}
