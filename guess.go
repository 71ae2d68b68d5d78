package chemfiles

// vdwRadii holds van der Waals radii (angstroms) for common elements,
// keyed by element symbol. Values are the Bondi/Alvarez consensus set
// used by most trajectory-analysis tools for bond guessing.
var vdwRadii = map[string]float64{
	"H": 1.20, "He": 1.40,
	"Li": 1.82, "Be": 1.53, "B": 1.92, "C": 1.70, "N": 1.55, "O": 1.52, "F": 1.47, "Ne": 1.54,
	"Na": 2.27, "Mg": 1.73, "Al": 1.84, "Si": 2.10, "P": 1.80, "S": 1.80, "Cl": 1.75, "Ar": 1.88,
	"K": 2.75, "Ca": 2.31, "Fe": 1.94, "Zn": 1.39, "Br": 1.85,
	"I": 1.98, "Xe": 2.16,
}

// VdWRadius returns the van der Waals radius for an element symbol (case
// sensitive, as conventionally capitalized), and whether it is known.
func VdWRadius(element string) (float64, bool) {
	r, ok := vdwRadii[element]
	return r, ok
}

// GuessTopology adds bonds to f's topology by distance under the frame's
// cell: atoms i<j are bonded if their minimum-image distance d satisfies
// 0.5*min(r_i, r_j) < d < 0.833*(r_i + r_j), per spec.md §4.4. It fails
// with a ConfigurationError if any atom's element (taken from its
// EffectiveType) has no known VdW radius.
//
// GuessTopology is idempotent: bonds it adds are a pure function of
// positions and radii, so calling it twice yields the same bond set
// (spec.md §8's invariant). Derived angle/dihedral/improper sets are
// recomputed lazily the next time they're accessed.
func GuessTopology(f *Frame) error {
	n := f.Size()
	radii := make([]float64, n)
	for i := 0; i < n; i++ {
		elem := f.Topology.Atom(i).EffectiveType()
		r, ok := VdWRadius(elem)
		if !ok {
			return NewConfigurationError("missing VdW radius for atom %s", elem)
		}
		radii[i] = r
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(f, i, j)
			ri, rj := radii[i], radii[j]
			minR := ri
			if rj < minR {
				minR = rj
			}
			if d < 0.833*(ri+rj) && d > 0.5*minR {
				f.Topology.AddBond(int64(i), int64(j), BondSingle)
			}
		}
	}
	return nil
}
