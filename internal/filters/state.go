// Package filters holds the listing filter model and the reducer functions
// that produce new filter values from user interactions.
package filters

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Location struct {
	State string `json:"state"`
	City  string `json:"city"`
}

// TriState is an optional boolean. Unknown means the filter does not apply.
type TriState int8

const (
	Unknown TriState = iota
	Yes
	No
)

func TriStateOf(v bool) TriState {
	if v {
		return Yes
	}
	return No
}

// Bool returns the value and whether it is known.
func (t TriState) Bool() (bool, bool) {
	switch t {
	case Yes:
		return true, true
	case No:
		return false, true
	default:
		return false, false
	}
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	default:
		return "unknown"
	}
}

func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		*t = Unknown
	case "true":
		*t = Yes
	case "false":
		*t = No
	default:
		return fmt.Errorf("invalid tri-state value %s", data)
	}
	return nil
}

type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// State is a complete filter query. Values are replaced, never mutated in place.
type State struct {
	Location       Location `json:"location"`
	Neighborhood   string   `json:"neighborhood"`
	Gender         []string `json:"gender"`
	PriceMax       *int     `json:"price_max"`
	AgeRange       AgeRange `json:"age_range"`
	HairColor      []string `json:"hair_color"`
	BodyType       []string `json:"body_type"`
	Ethnicity      []string `json:"ethnicity"`
	Services       []string `json:"services"`
	PaymentMethods []string `json:"payment_methods"`
	HasPlace       TriState `json:"has_place"`
	VideoCall      TriState `json:"video_call"`
	VerifiedOnly   bool     `json:"verified_only"`
	Category       *string  `json:"category"`
	Keyword        string   `json:"keyword"`
}

type Bounds struct {
	PriceMin  int
	PriceMax  int
	PriceStep int
	AgeMin    int
	AgeMax    int
}

func DefaultBounds() Bounds {
	return Bounds{
		PriceMin:  100,
		PriceMax:  1000,
		PriceStep: 50,
		AgeMin:    18,
		AgeMax:    60,
	}
}

// Default returns the clear-all filter for DefaultBounds.
func Default() State {
	return DefaultFor(DefaultBounds())
}

// DefaultFor returns the clear-all filter whose age range spans b.
func DefaultFor(b Bounds) State {
	return State{
		Gender:         []string{},
		AgeRange:       AgeRange{Min: b.AgeMin, Max: b.AgeMax},
		HairColor:      []string{},
		BodyType:       []string{},
		Ethnicity:      []string{},
		Services:       []string{},
		PaymentMethods: []string{},
	}
}

// AgeApplies reports whether the age range narrows the bounds b. The full
// range means no age constraint.
func (s State) AgeApplies(b Bounds) bool {
	return s.AgeRange != AgeRange{Min: b.AgeMin, Max: b.AgeMax}
}

// Clone returns a deep copy so callers never share backing arrays.
func (s State) Clone() State {
	out := s
	out.Gender = cloneSet(s.Gender)
	out.HairColor = cloneSet(s.HairColor)
	out.BodyType = cloneSet(s.BodyType)
	out.Ethnicity = cloneSet(s.Ethnicity)
	out.Services = cloneSet(s.Services)
	out.PaymentMethods = cloneSet(s.PaymentMethods)
	if s.PriceMax != nil {
		v := *s.PriceMax
		out.PriceMax = &v
	}
	if s.Category != nil {
		v := *s.Category
		out.Category = &v
	}
	return out
}

func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	decoded := plain(Default())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = State(decoded).Clone()
	return nil
}

func cloneSet(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func IntPtr(v int) *int {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
