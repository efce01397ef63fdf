package filters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	keyState        = "state"
	keyCity         = "city"
	keyNeighborhood = "neighborhood"
	keyPriceMax     = "price_max"
	keyAgeMin       = "age_min"
	keyAgeMax       = "age_max"
	keyHasPlace     = "has_place"
	keyVideoCall    = "video_call"
	keyVerifiedOnly = "verified_only"
	keyCategory     = "category"
	keyKeyword      = "keyword"
)

// DecodeQuery reads a filter from URL query values. Missing keys take their
// default value. The result is validated against b.
func DecodeQuery(q url.Values, b Bounds) (State, error) {
	s := DefaultFor(b)

	s.Location.State = strings.ToUpper(strings.TrimSpace(q.Get(keyState)))
	s.Location.City = strings.TrimSpace(q.Get(keyCity))
	s.Neighborhood = strings.TrimSpace(q.Get(keyNeighborhood))
	s.Keyword = strings.TrimSpace(q.Get(keyKeyword))

	for _, f := range SetFields() {
		values := splitList(q[f.Name()])
		s = Merge(s, f.patch(values))
	}

	if raw := strings.TrimSpace(q.Get(keyPriceMax)); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: price_max: %v", ErrInvalidFilter, err)
		}
		s.PriceMax = IntPtr(v)
	}
	if raw := strings.TrimSpace(q.Get(keyAgeMin)); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: age_min: %v", ErrInvalidFilter, err)
		}
		s.AgeRange.Min = v
	}
	if raw := strings.TrimSpace(q.Get(keyAgeMax)); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return State{}, fmt.Errorf("%w: age_max: %v", ErrInvalidFilter, err)
		}
		s.AgeRange.Max = v
	}

	var err error
	if s.HasPlace, err = ParseTriState(q.Get(keyHasPlace)); err != nil {
		return State{}, fmt.Errorf("%w: has_place: %v", ErrInvalidFilter, err)
	}
	if s.VideoCall, err = ParseTriState(q.Get(keyVideoCall)); err != nil {
		return State{}, fmt.Errorf("%w: video_call: %v", ErrInvalidFilter, err)
	}
	if raw := strings.TrimSpace(q.Get(keyVerifiedOnly)); raw != "" {
		v, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return State{}, fmt.Errorf("%w: verified_only: %v", ErrInvalidFilter, parseErr)
		}
		s.VerifiedOnly = v
	}
	if raw := strings.TrimSpace(q.Get(keyCategory)); raw != "" {
		s.Category = StringPtr(raw)
	}

	if err := s.Validate(b); err != nil {
		return State{}, err
	}
	return s, nil
}

// EncodeQuery writes only the fields that differ from DefaultFor(b).
func EncodeQuery(s State, b Bounds) url.Values {
	q := url.Values{}
	if s.Location.State != "" {
		q.Set(keyState, s.Location.State)
	}
	if s.Location.City != "" {
		q.Set(keyCity, s.Location.City)
	}
	if s.Neighborhood != "" {
		q.Set(keyNeighborhood, s.Neighborhood)
	}
	for _, f := range SetFields() {
		for _, v := range f.members(s) {
			q.Add(f.Name(), v)
		}
	}
	if s.PriceMax != nil {
		q.Set(keyPriceMax, strconv.Itoa(*s.PriceMax))
	}
	if s.AgeRange.Min != b.AgeMin {
		q.Set(keyAgeMin, strconv.Itoa(s.AgeRange.Min))
	}
	if s.AgeRange.Max != b.AgeMax {
		q.Set(keyAgeMax, strconv.Itoa(s.AgeRange.Max))
	}
	if v, ok := s.HasPlace.Bool(); ok {
		q.Set(keyHasPlace, strconv.FormatBool(v))
	}
	if v, ok := s.VideoCall.Bool(); ok {
		q.Set(keyVideoCall, strconv.FormatBool(v))
	}
	if s.VerifiedOnly {
		q.Set(keyVerifiedOnly, "true")
	}
	if s.Category != nil {
		q.Set(keyCategory, *s.Category)
	}
	if s.Keyword != "" {
		q.Set(keyKeyword, s.Keyword)
	}
	return q
}

// CacheKey is stable under reordering of set members.
func (s State) CacheKey() string {
	canonical := s.Clone()
	for _, f := range SetFields() {
		members := f.members(canonical)
		sort.Strings(members)
	}
	canonical.Keyword = strings.ToLower(canonical.Keyword)
	canonical.Neighborhood = strings.ToLower(canonical.Neighborhood)

	raw, _ := json.Marshal(canonical)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func splitList(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseTriState accepts strconv booleans; empty and "any" mean Unknown.
func ParseTriState(raw string) (TriState, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "any") {
		return Unknown, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return Unknown, err
	}
	return TriStateOf(v), nil
}
