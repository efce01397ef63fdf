package filters

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sickboy81/saphira/internal/domain/model"
)

func TestDecodeQueryDefaults(t *testing.T) {
	got, err := DecodeQuery(url.Values{}, DefaultBounds())
	if err != nil {
		t.Fatalf("decode empty query: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("unexpected state (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeQuery(t *testing.T) {
	s := Default()
	s.Location = Location{State: "RJ", City: "Niterói"}
	s.Gender = []string{"mulher", "trans"}
	s.Services = []string{"Jantar"}
	s.PaymentMethods = []string{"PIX", "Cartão de Crédito"}
	s.PriceMax = IntPtr(450)
	s.AgeRange = AgeRange{Min: 21, Max: 35}
	s.HasPlace = Yes
	s.VideoCall = No
	s.VerifiedOnly = true
	s.Keyword = "praia"

	got, err := DecodeQuery(EncodeQuery(s, DefaultBounds()), DefaultBounds())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("unexpected state (-want +got):\n%s", diff)
	}
}

func TestCustomBoundsAgeRange(t *testing.T) {
	b := Bounds{PriceMin: 100, PriceMax: 1000, PriceStep: 50, AgeMin: 21, AgeMax: 50}
	def := DefaultFor(b)

	if q := EncodeQuery(def, b); len(q) != 0 {
		t.Fatalf("default state should encode to an empty query, got %v", q)
	}
	got, err := DecodeQuery(EncodeQuery(def, b), b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(def, got); diff != "" {
		t.Fatalf("unexpected state (-want +got):\n%s", diff)
	}
	if def.AgeApplies(b) {
		t.Fatalf("full range %+v should not constrain age", def.AgeRange)
	}

	undisclosed := model.Profile{Attributes: model.ProfileAttributes{State: "SP"}}
	if !def.Matches(undisclosed, b) {
		t.Fatalf("default filter should match a profile without an age")
	}

	narrowed := def
	narrowed.AgeRange = AgeRange{Min: 25, Max: 50}
	if !narrowed.AgeApplies(b) {
		t.Fatalf("narrowed range should constrain age")
	}
	if narrowed.Matches(undisclosed, b) {
		t.Fatalf("narrowed filter should reject a profile without an age")
	}
	if q := EncodeQuery(narrowed, b); q.Get("age_min") != "25" || q.Has("age_max") {
		t.Fatalf("unexpected age params: %v", q)
	}
}

func TestDecodeQueryRejectsInvalidValues(t *testing.T) {
	cases := map[string]url.Values{
		"unknown state":       {"state": {"XX"}},
		"city without state":  {"city": {"Campinas"}},
		"city of other state": {"state": {"RJ"}, "city": {"Campinas"}},
		"unknown hair":        {"hair_color": {"Azul"}},
		"price off step":      {"price_max": {"125"}},
		"price out of range":  {"price_max": {"5000"}},
		"age inverted":        {"age_min": {"40"}, "age_max": {"30"}},
		"age below bound":     {"age_min": {"16"}},
		"bad tri-state":       {"has_place": {"maybe"}},
		"duplicate member":    {"gender": {"mulher", "mulher"}},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeQuery(q, DefaultBounds())
			if !errors.Is(err, ErrInvalidFilter) {
				t.Fatalf("expected ErrInvalidFilter, got %v", err)
			}
		})
	}
}

func TestCacheKeyIgnoresMemberOrder(t *testing.T) {
	a := Default()
	a.Services = []string{"Jantar", "Viagens"}
	b := Default()
	b.Services = []string{"Viagens", "Jantar"}

	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("cache key depends on member order")
	}
	b.VerifiedOnly = true
	if a.CacheKey() == b.CacheKey() {
		t.Fatalf("cache key ignores verified_only")
	}
	if a.Services[0] != "Jantar" {
		t.Fatalf("cache key mutated the state")
	}
}

func TestMatches(t *testing.T) {
	profile := model.Profile{
		DisplayName: "Julia",
		Attributes: model.ProfileAttributes{
			State:          "SP",
			City:           "Campinas",
			Neighborhood:   "Cambuí",
			Gender:         "mulher",
			Price:          300,
			Age:            27,
			HairColor:      "Morena",
			Services:       []string{"Jantar", "Viagens"},
			PaymentMethods: []string{"PIX"},
			HasPlace:       true,
			Verified:       true,
			Bio:            "Atendimento em hotel",
		},
	}

	cases := []struct {
		name  string
		patch Patch
		want  bool
	}{
		{name: "default", want: true},
		{name: "city", patch: Patch{State: Set("SP"), City: Set("Campinas")}, want: true},
		{name: "other city", patch: Patch{State: Set("SP"), City: Set("Santos")}, want: false},
		{name: "neighborhood fold", patch: Patch{Neighborhood: Set("cambu")}, want: true},
		{name: "all services offered", patch: Patch{Services: Set([]string{"Jantar", "Viagens"})}, want: true},
		{name: "service missing", patch: Patch{Services: Set([]string{"Jantar", "Casais"})}, want: false},
		{name: "any payment", patch: Patch{PaymentMethods: Set([]string{"Crypto", "PIX"})}, want: true},
		{name: "no payment", patch: Patch{PaymentMethods: Set([]string{"Crypto"})}, want: false},
		{name: "price cap", patch: Patch{PriceMax: Set(IntPtr(250))}, want: false},
		{name: "age range", patch: Patch{AgeRange: Set(AgeRange{Min: 30, Max: 40})}, want: false},
		{name: "has place", patch: Patch{HasPlace: Set(No)}, want: false},
		{name: "video unknown", patch: Patch{VideoCall: Set(Unknown)}, want: true},
		{name: "verified", patch: Patch{VerifiedOnly: Set(true)}, want: true},
		{name: "keyword in bio", patch: Patch{Keyword: Set("HOTEL")}, want: true},
		{name: "keyword absent", patch: Patch{Keyword: Set("barco")}, want: false},
		{name: "gender set", patch: Patch{Gender: Set([]string{"homem", "trans"})}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Merge(Default(), tc.patch)
			if got := s.Matches(profile, DefaultBounds()); got != tc.want {
				t.Fatalf("unexpected match: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestValidateListing(t *testing.T) {
	valid := model.ProfileAttributes{
		State:          "SP",
		City:           "Campinas",
		Gender:         "mulher",
		HairColor:      "Ruiva",
		Services:       []string{"Massagem", "Jantar"},
		PaymentMethods: []string{"PIX"},
		Price:          300,
		Age:            25,
	}
	if err := ValidateListing(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(a *model.ProfileAttributes){
		"unknown state":      func(a *model.ProfileAttributes) { a.State = "XX" },
		"city without state": func(a *model.ProfileAttributes) { a.State = "" },
		"city of other state": func(a *model.ProfileAttributes) {
			a.State = "RJ"
		},
		"unknown gender":    func(a *model.ProfileAttributes) { a.Gender = "robot" },
		"duplicate service": func(a *model.ProfileAttributes) { a.Services = []string{"Jantar", "Jantar"} },
		"unknown payment":   func(a *model.ProfileAttributes) { a.PaymentMethods = []string{"Cheque"} },
		"minor":             func(a *model.ProfileAttributes) { a.Age = 17 },
		"negative price":    func(a *model.ProfileAttributes) { a.Price = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			a := valid
			a.Services = append([]string(nil), valid.Services...)
			mutate(&a)
			if err := ValidateListing(a); !errors.Is(err, ErrInvalidListing) {
				t.Fatalf("expected ErrInvalidListing, got %v", err)
			}
		})
	}
}
