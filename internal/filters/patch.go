package filters

// Opt is an optional field assignment inside a Patch.
type Opt[T any] struct {
	value T
	set   bool
}

func Set[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// Patch lists the fields to replace. Unset fields keep their current value.
type Patch struct {
	State          Opt[string]
	City           Opt[string]
	Neighborhood   Opt[string]
	Gender         Opt[[]string]
	PriceMax       Opt[*int]
	AgeRange       Opt[AgeRange]
	HairColor      Opt[[]string]
	BodyType       Opt[[]string]
	Ethnicity      Opt[[]string]
	Services       Opt[[]string]
	PaymentMethods Opt[[]string]
	HasPlace       Opt[TriState]
	VideoCall      Opt[TriState]
	VerifiedOnly   Opt[bool]
	Category       Opt[*string]
	Keyword        Opt[string]
}

// PatchFrom builds a patch that assigns every field of s.
func PatchFrom(s State) Patch {
	return Patch{
		State:          Set(s.Location.State),
		City:           Set(s.Location.City),
		Neighborhood:   Set(s.Neighborhood),
		Gender:         Set(s.Gender),
		PriceMax:       Set(s.PriceMax),
		AgeRange:       Set(s.AgeRange),
		HairColor:      Set(s.HairColor),
		BodyType:       Set(s.BodyType),
		Ethnicity:      Set(s.Ethnicity),
		Services:       Set(s.Services),
		PaymentMethods: Set(s.PaymentMethods),
		HasPlace:       Set(s.HasPlace),
		VideoCall:      Set(s.VideoCall),
		VerifiedOnly:   Set(s.VerifiedOnly),
		Category:       Set(s.Category),
		Keyword:        Set(s.Keyword),
	}
}

// Merge returns s with the fields assigned in p replaced. s is not modified.
//
// Assigning a state without a city clears the city, and an empty state never
// keeps a city.
func Merge(s State, p Patch) State {
	out := s.Clone()

	if v, ok := p.State.Get(); ok {
		out.Location.State = v
		if _, cityOK := p.City.Get(); !cityOK {
			out.Location.City = ""
		}
	}
	if v, ok := p.City.Get(); ok {
		out.Location.City = v
	}
	if out.Location.State == "" {
		out.Location.City = ""
	}

	if v, ok := p.Neighborhood.Get(); ok {
		out.Neighborhood = v
	}
	if v, ok := p.Gender.Get(); ok {
		out.Gender = cloneSet(v)
	}
	if v, ok := p.PriceMax.Get(); ok {
		if v == nil {
			out.PriceMax = nil
		} else {
			out.PriceMax = IntPtr(*v)
		}
	}
	if v, ok := p.AgeRange.Get(); ok {
		out.AgeRange = v
	}
	if v, ok := p.HairColor.Get(); ok {
		out.HairColor = cloneSet(v)
	}
	if v, ok := p.BodyType.Get(); ok {
		out.BodyType = cloneSet(v)
	}
	if v, ok := p.Ethnicity.Get(); ok {
		out.Ethnicity = cloneSet(v)
	}
	if v, ok := p.Services.Get(); ok {
		out.Services = cloneSet(v)
	}
	if v, ok := p.PaymentMethods.Get(); ok {
		out.PaymentMethods = cloneSet(v)
	}
	if v, ok := p.HasPlace.Get(); ok {
		out.HasPlace = v
	}
	if v, ok := p.VideoCall.Get(); ok {
		out.VideoCall = v
	}
	if v, ok := p.VerifiedOnly.Get(); ok {
		out.VerifiedOnly = v
	}
	if v, ok := p.Category.Get(); ok {
		if v == nil {
			out.Category = nil
		} else {
			out.Category = StringPtr(*v)
		}
	}
	if v, ok := p.Keyword.Get(); ok {
		out.Keyword = v
	}
	return out
}

// Toggle removes v from members when present and appends it otherwise.
// The input slice is never modified.
func Toggle(members []string, v string) []string {
	out := make([]string, 0, len(members)+1)
	found := false
	for _, m := range members {
		if m == v {
			found = true
			continue
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// SetField names one of the multi-select fields of State.
type SetField interface {
	Name() string
	members(State) []string
	patch([]string) Patch
}

type setField struct {
	name string
	get  func(State) []string
	put  func([]string) Patch
}

func (f setField) Name() string             { return f.name }
func (f setField) members(s State) []string { return f.get(s) }
func (f setField) patch(v []string) Patch   { return f.put(v) }

var (
	FieldGender = setField{
		name: "gender",
		get:  func(s State) []string { return s.Gender },
		put:  func(v []string) Patch { return Patch{Gender: Set(v)} },
	}
	FieldHairColor = setField{
		name: "hair_color",
		get:  func(s State) []string { return s.HairColor },
		put:  func(v []string) Patch { return Patch{HairColor: Set(v)} },
	}
	FieldBodyType = setField{
		name: "body_type",
		get:  func(s State) []string { return s.BodyType },
		put:  func(v []string) Patch { return Patch{BodyType: Set(v)} },
	}
	FieldEthnicity = setField{
		name: "ethnicity",
		get:  func(s State) []string { return s.Ethnicity },
		put:  func(v []string) Patch { return Patch{Ethnicity: Set(v)} },
	}
	FieldServices = setField{
		name: "services",
		get:  func(s State) []string { return s.Services },
		put:  func(v []string) Patch { return Patch{Services: Set(v)} },
	}
	FieldPaymentMethods = setField{
		name: "payment_methods",
		get:  func(s State) []string { return s.PaymentMethods },
		put:  func(v []string) Patch { return Patch{PaymentMethods: Set(v)} },
	}
)

// SetFields lists every toggleable field.
func SetFields() []SetField {
	return []SetField{FieldGender, FieldHairColor, FieldBodyType, FieldEthnicity, FieldServices, FieldPaymentMethods}
}

// Members returns a copy of the values selected for f.
func Members(f SetField, s State) []string {
	return cloneSet(f.members(s))
}

// Vocabulary returns the allowed values of f.
func Vocabulary(f SetField) []string {
	return cloneSet(vocabularyFor(f))
}

// ParseSetField resolves a field by its wire name.
func ParseSetField(name string) (SetField, bool) {
	for _, f := range SetFields() {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

func vocabularyFor(f SetField) []string {
	switch f.Name() {
	case "gender":
		return Genders
	case "hair_color":
		return HairColors
	case "body_type":
		return BodyTypes
	case "ethnicity":
		return Ethnicities
	case "services":
		return Services
	case "payment_methods":
		return PaymentMethods
	default:
		return nil
	}
}
