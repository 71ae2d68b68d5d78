package chemfiles

// PropertyKind identifies which alternative of the Property variant is
// currently held.
type PropertyKind int

const (
	PropertyBool PropertyKind = iota
	PropertyDouble
	PropertyString
	PropertyVector3D
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyBool:
		return "bool"
	case PropertyDouble:
		return "double"
	case PropertyString:
		return "string"
	case PropertyVector3D:
		return "Vector3D"
	default:
		return "unknown"
	}
}

// Property is a tagged variant over {bool, double, string, Vector3D}.
// Reading a Property as the wrong kind fails with a ConfigurationError
// rather than returning a zero value, per spec.md's typed-error rule.
type Property struct {
	kind PropertyKind
	b    bool
	d    float64
	s    string
	v    Vector3D
}

func NewBoolProperty(b bool) Property       { return Property{kind: PropertyBool, b: b} }
func NewDoubleProperty(d float64) Property  { return Property{kind: PropertyDouble, d: d} }
func NewStringProperty(s string) Property   { return Property{kind: PropertyString, s: s} }
func NewVector3DProperty(v Vector3D) Property {
	return Property{kind: PropertyVector3D, v: v}
}

func (p Property) Kind() PropertyKind { return p.kind }

func (p Property) AsBool() (bool, error) {
	if p.kind != PropertyBool {
		return false, NewConfigurationError("property is %s, not bool", p.kind)
	}
	return p.b, nil
}

func (p Property) AsDouble() (float64, error) {
	if p.kind != PropertyDouble {
		return 0, NewConfigurationError("property is %s, not double", p.kind)
	}
	return p.d, nil
}

func (p Property) AsString() (string, error) {
	if p.kind != PropertyString {
		return "", NewConfigurationError("property is %s, not string", p.kind)
	}
	return p.s, nil
}

func (p Property) AsVector3D() (Vector3D, error) {
	if p.kind != PropertyVector3D {
		return Vector3D{}, NewConfigurationError("property is %s, not Vector3D", p.kind)
	}
	return p.v, nil
}

// PropertyMap is the open string-keyed map of Property values carried by
// Atom, Residue, and Frame.
type PropertyMap map[string]Property

func (m PropertyMap) clone() PropertyMap {
	if m == nil {
		return nil
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
