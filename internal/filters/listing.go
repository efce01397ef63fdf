package filters

import (
	"errors"
	"fmt"

	"github.com/sickboy81/saphira/internal/domain/model"
)

var ErrInvalidListing = errors.New("invalid listing")

const (
	minListingAge = 18
	maxListingAge = 99
)

// ValidateListing checks advertiser attributes against the same
// vocabularies the filters offer, so every listing stays findable.
func ValidateListing(a model.ProfileAttributes) error {
	if a.State != "" {
		if _, ok := Locations[a.State]; !ok {
			return fmt.Errorf("%w: unknown state %q", ErrInvalidListing, a.State)
		}
	}
	if a.City != "" && !KnownCity(a.State, a.City) {
		return fmt.Errorf("%w: city %q is not in %q", ErrInvalidListing, a.City, a.State)
	}

	single := []struct {
		name  string
		value string
		vocab []string
	}{
		{"gender", a.Gender, Genders},
		{"hair_color", a.HairColor, HairColors},
		{"body_type", a.BodyType, BodyTypes},
		{"ethnicity", a.Ethnicity, Ethnicities},
	}
	for _, f := range single {
		if f.value != "" && !contains(f.vocab, f.value) {
			return fmt.Errorf("%w: unknown %s %q", ErrInvalidListing, f.name, f.value)
		}
	}

	if err := checkSubset("services", a.Services, Services); err != nil {
		return err
	}
	if err := checkSubset("payment_methods", a.PaymentMethods, PaymentMethods); err != nil {
		return err
	}

	if a.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidListing)
	}
	if a.Age != 0 && (a.Age < minListingAge || a.Age > maxListingAge) {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidListing, minListingAge, maxListingAge)
	}
	return nil
}

func checkSubset(name string, values, vocab []string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if !contains(vocab, v) {
			return fmt.Errorf("%w: unknown %s value %q", ErrInvalidListing, name, v)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("%w: duplicate %s value %q", ErrInvalidListing, name, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}
