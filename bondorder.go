package chemfiles

// BondOrder is the symbolic multiplicity of a chemical bond.
type BondOrder int

const (
	BondUnknown BondOrder = iota
	BondSingle
	BondDouble
	BondTriple
	BondQuadruple
	BondQuintuplet
	BondAromatic
	BondAmide
)

func (o BondOrder) String() string {
	switch o {
	case BondSingle:
		return "single"
	case BondDouble:
		return "double"
	case BondTriple:
		return "triple"
	case BondQuadruple:
		return "quadruple"
	case BondQuintuplet:
		return "quintuplet"
	case BondAromatic:
		return "aromatic"
	case BondAmide:
		return "amide"
	default:
		return "unknown"
	}
}

// sdfBondOrderCodes maps the CTFile (SDF) V2000 bond-order integer codes
// onto BondOrder. Codes 1-3 are the plain valences; 4 is aromatic; 8
// ("any") and every other code, including the query types 5-7, map to
// BondUnknown.
var sdfBondOrderCodes = map[int]BondOrder{
	1: BondSingle,
	2: BondDouble,
	3: BondTriple,
	4: BondAromatic,
	8: BondUnknown,
}

func bondOrderFromSDFCode(code int) BondOrder {
	if o, ok := sdfBondOrderCodes[code]; ok {
		return o
	}
	return BondUnknown
}

// BondOrderFromSDFCode exposes bondOrderFromSDFCode to format adapters in
// subpackages.
func BondOrderFromSDFCode(code int) BondOrder { return bondOrderFromSDFCode(code) }

func sdfCodeFromBondOrder(o BondOrder) int {
	switch o {
	case BondSingle:
		return 1
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondAromatic:
		return 4
	default:
		return 1
	}
}

// SDFCodeFromBondOrder exposes sdfCodeFromBondOrder to format adapters in
// subpackages.
func SDFCodeFromBondOrder(o BondOrder) int { return sdfCodeFromBondOrder(o) }

// mol2BondOrderStrings maps the Tripos MOL2 bond "type" field strings.
var mol2BondOrderStrings = map[string]BondOrder{
	"1":  BondSingle,
	"2":  BondDouble,
	"3":  BondTriple,
	"ar": BondAromatic,
	"am": BondAmide,
	"du": BondUnknown,
	"un": BondUnknown,
	"nc": BondUnknown,
}

func bondOrderFromMOL2(s string) BondOrder {
	if o, ok := mol2BondOrderStrings[s]; ok {
		return o
	}
	return BondUnknown
}

// BondOrderFromMOL2 exposes bondOrderFromMOL2 to format adapters in
// subpackages.
func BondOrderFromMOL2(s string) BondOrder { return bondOrderFromMOL2(s) }

func mol2StringFromBondOrder(o BondOrder) string {
	switch o {
	case BondSingle:
		return "1"
	case BondDouble:
		return "2"
	case BondTriple:
		return "3"
	case BondAromatic:
		return "ar"
	case BondAmide:
		return "am"
	default:
		return "un"
	}
}

// MOL2StringFromBondOrder exposes mol2StringFromBondOrder to format
// adapters in subpackages.
func MOL2StringFromBondOrder(o BondOrder) string { return mol2StringFromBondOrder(o) }
