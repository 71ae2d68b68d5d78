package chemfiles

// Atom is a single particle record: a name, a force-field type (defaults
// to the name when unset), mass and charge, and an open property map.
//
// Two atoms are equal iff all intrinsic fields (not properties) are
// equal; properties are compared separately by callers that care.
type Atom struct {
	Name       string
	Type       string
	Mass       float64
	Charge     float64
	Properties PropertyMap
}

// NewAtom builds an Atom with Type defaulted to Name and zero mass/charge.
func NewAtom(name string) Atom {
	return Atom{Name: name, Type: name}
}

// EffectiveType returns Type, falling back to Name when Type is empty.
func (a Atom) EffectiveType() string {
	if a.Type != "" {
		return a.Type
	}
	return a.Name
}

// Equal reports whether two atoms have identical intrinsic fields.
func (a Atom) Equal(b Atom) bool {
	return a.Name == b.Name && a.Type == b.Type && a.Mass == b.Mass && a.Charge == b.Charge
}

func (a Atom) clone() Atom {
	b := a
	b.Properties = a.Properties.clone()
	return b
}

// SetProperty attaches a property to the atom, allocating the map on
// first use.
func (a *Atom) SetProperty(key string, p Property) {
	if a.Properties == nil {
		a.Properties = make(PropertyMap)
	}
	a.Properties[key] = p
}

// Property looks up a property by key.
func (a Atom) Property(key string) (Property, bool) {
	p, ok := a.Properties[key]
	return p, ok
}
