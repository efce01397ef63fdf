package filters

import (
	"errors"
	"fmt"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Validate checks s against the vocabularies and numeric bounds.
func (s State) Validate(b Bounds) error {
	if s.Location.State != "" {
		if _, ok := Locations[s.Location.State]; !ok {
			return fmt.Errorf("%w: unknown state %q", ErrInvalidFilter, s.Location.State)
		}
	}
	if s.Location.City != "" {
		if s.Location.State == "" {
			return fmt.Errorf("%w: city requires a state", ErrInvalidFilter)
		}
		if !KnownCity(s.Location.State, s.Location.City) {
			return fmt.Errorf("%w: city %q is not in %s", ErrInvalidFilter, s.Location.City, s.Location.State)
		}
	}

	for _, f := range SetFields() {
		vocab := vocabularyFor(f)
		seen := make(map[string]struct{})
		for _, v := range f.members(s) {
			if !contains(vocab, v) {
				return fmt.Errorf("%w: unknown %s value %q", ErrInvalidFilter, f.Name(), v)
			}
			if _, dup := seen[v]; dup {
				return fmt.Errorf("%w: duplicate %s value %q", ErrInvalidFilter, f.Name(), v)
			}
			seen[v] = struct{}{}
		}
	}

	if s.PriceMax != nil {
		price := *s.PriceMax
		if price < b.PriceMin || price > b.PriceMax {
			return fmt.Errorf("%w: price_max must be between %d and %d", ErrInvalidFilter, b.PriceMin, b.PriceMax)
		}
		if b.PriceStep > 0 && (price-b.PriceMin)%b.PriceStep != 0 {
			return fmt.Errorf("%w: price_max must be a multiple of %d", ErrInvalidFilter, b.PriceStep)
		}
	}

	if s.AgeRange.Min > s.AgeRange.Max {
		return fmt.Errorf("%w: age_min is greater than age_max", ErrInvalidFilter)
	}
	if s.AgeRange.Min < b.AgeMin || s.AgeRange.Max > b.AgeMax {
		return fmt.Errorf("%w: age range must be within %d-%d", ErrInvalidFilter, b.AgeMin, b.AgeMax)
	}

	switch s.HasPlace {
	case Unknown, Yes, No:
	default:
		return fmt.Errorf("%w: has_place", ErrInvalidFilter)
	}
	switch s.VideoCall {
	case Unknown, Yes, No:
	default:
		return fmt.Errorf("%w: video_call", ErrInvalidFilter)
	}
	return nil
}
