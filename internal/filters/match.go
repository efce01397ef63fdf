package filters

import (
	"strings"

	"github.com/sickboy81/saphira/internal/domain/model"
)

// Matches reports whether a profile satisfies every constraint in s, with
// the age range read against b. It mirrors the listing query in the postgres
// profile repository.
func (s State) Matches(p model.Profile, b Bounds) bool {
	a := p.Attributes
	if s.Location.State != "" && a.State != s.Location.State {
		return false
	}
	if s.Location.City != "" && a.City != s.Location.City {
		return false
	}
	if s.Neighborhood != "" && !containsFold(a.Neighborhood, s.Neighborhood) {
		return false
	}
	if !inSet(s.Gender, a.Gender) ||
		!inSet(s.HairColor, a.HairColor) ||
		!inSet(s.BodyType, a.BodyType) ||
		!inSet(s.Ethnicity, a.Ethnicity) {
		return false
	}
	for _, svc := range s.Services {
		if !contains(a.Services, svc) {
			return false
		}
	}
	if len(s.PaymentMethods) > 0 {
		accepted := false
		for _, m := range s.PaymentMethods {
			if contains(a.PaymentMethods, m) {
				accepted = true
				break
			}
		}
		if !accepted {
			return false
		}
	}
	if s.PriceMax != nil && a.Price > *s.PriceMax {
		return false
	}
	if s.AgeApplies(b) && (a.Age < s.AgeRange.Min || a.Age > s.AgeRange.Max) {
		return false
	}
	if v, ok := s.HasPlace.Bool(); ok && a.HasPlace != v {
		return false
	}
	if v, ok := s.VideoCall.Bool(); ok && a.VideoCall != v {
		return false
	}
	if s.VerifiedOnly && !a.Verified {
		return false
	}
	if s.Category != nil && a.Category != *s.Category {
		return false
	}
	if s.Keyword != "" {
		if !containsFold(p.DisplayName, s.Keyword) &&
			!containsFold(a.Bio, s.Keyword) &&
			!containsFold(a.City, s.Keyword) &&
			!containsFold(a.Neighborhood, s.Keyword) {
			return false
		}
	}
	return true
}

func inSet(set []string, v string) bool {
	return len(set) == 0 || contains(set, v)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
