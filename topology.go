package chemfiles

import "sort"

// Bond is an unordered pair of atom indices, stored canonically with A<B.
type Bond struct {
	A, B int64
}

func newBond(i, j int64) Bond {
	if i < j {
		return Bond{i, j}
	}
	return Bond{j, i}
}

// Angle is an ordered triple (a, b, c) with b the central atom,
// canonicalized so that a <= c.
type Angle struct {
	A, B, C int64
}

// Dihedral is an ordered quadruple (a, b, c, d) along bonds a-b, b-c, c-d.
type Dihedral struct {
	A, B, C, D int64
}

// Improper is a center atom plus three neighbors, canonicalized with the
// neighbors sorted ascending (the "(center, sorted-neighbors)" form
// chosen in DESIGN.md to resolve spec.md §9's open question).
type Improper struct {
	Center       int64
	I, K, M      int64
}

// Topology holds an ordered sequence of Atoms, a set of Residues
// referencing atom indices, a bond graph, and pure-function derived sets
// (angles, dihedrals, impropers) recomputed lazily whenever the bond
// graph is mutated.
type Topology struct {
	atoms     []Atom
	residues  []Residue
	bonds     []Bond
	bondOrder map[Bond]BondOrder

	dirty     bool
	angles    []Angle
	dihedrals []Dihedral
	impropers []Improper
}

// NewTopology builds an empty topology.
func NewTopology() *Topology {
	return &Topology{bondOrder: make(map[Bond]BondOrder)}
}

// AtomCount returns the number of atoms, N, in [0..N).
func (t *Topology) AtomCount() int { return len(t.atoms) }

// Atom returns the atom at index i.
func (t *Topology) Atom(i int) Atom { return t.atoms[i] }

// Atoms returns the full atom slice. Callers must not mutate it directly;
// use SetAtom/AddAtom/RemoveAtom instead.
func (t *Topology) Atoms() []Atom { return t.atoms }

// SetAtom replaces the atom at index i.
func (t *Topology) SetAtom(i int, a Atom) { t.atoms[i] = a }

// AddAtom appends an atom, growing the size invariant by one. It does not
// touch positions/velocities; Frame.AddAtom is the public entry point that
// keeps all three in sync.
func (t *Topology) AddAtom(a Atom) {
	t.atoms = append(t.atoms, a)
}

// RemoveAtom removes the atom at index i, shifting higher indices down,
// rewriting bond endpoints accordingly, and dropping any bond or residue
// membership that referenced i.
func (t *Topology) RemoveAtom(i int) {
	n := int64(i)
	t.atoms = append(t.atoms[:i], t.atoms[i+1:]...)

	newBonds := t.bonds[:0]
	newOrder := make(map[Bond]BondOrder, len(t.bondOrder))
	for _, b := range t.bonds {
		if b.A == n || b.B == n {
			continue
		}
		nb := newBond(shiftDown(b.A, n), shiftDown(b.B, n))
		newBonds = append(newBonds, nb)
		newOrder[nb] = t.bondOrder[b]
	}
	t.bonds = append([]Bond(nil), newBonds...)
	t.bondOrder = newOrder

	for ri := range t.residues {
		r := &t.residues[ri]
		r.RemoveAtom(n)
		for ai, a := range r.atoms {
			if a > n {
				r.atoms[ai] = a - 1
			}
		}
	}

	t.dirty = true
}

func shiftDown(idx, removed int64) int64 {
	if idx > removed {
		return idx - 1
	}
	return idx
}

// Resize truncates or zero-pads the atom slice to n atoms, dropping any
// bond, residue membership, or derived set entry that referenced a
// truncated index. Padding appends default (zero-valued) atoms.
func (t *Topology) Resize(n int) {
	if n < len(t.atoms) {
		newBonds := t.bonds[:0]
		newOrder := make(map[Bond]BondOrder, len(t.bondOrder))
		for _, b := range t.bonds {
			if int(b.A) >= n || int(b.B) >= n {
				continue
			}
			newBonds = append(newBonds, b)
			newOrder[b] = t.bondOrder[b]
		}
		t.bonds = append([]Bond(nil), newBonds...)
		t.bondOrder = newOrder

		newResidues := t.residues[:0]
		for _, r := range t.residues {
			kept := r.atoms[:0]
			for _, a := range r.atoms {
				if int(a) < n {
					kept = append(kept, a)
				}
			}
			r.atoms = append([]int64(nil), kept...)
			if len(r.atoms) > 0 {
				newResidues = append(newResidues, r)
			}
		}
		t.residues = append([]Residue(nil), newResidues...)

		t.atoms = t.atoms[:n]
	} else {
		for len(t.atoms) < n {
			t.atoms = append(t.atoms, Atom{})
		}
	}
	t.dirty = true
}

// Residues returns the topology's residues.
func (t *Topology) Residues() []Residue { return t.residues }

// AddResidue appends a residue to the topology.
func (t *Topology) AddResidue(r Residue) {
	t.residues = append(t.residues, r)
}

// ResidueForAtom returns the residue containing atom index i, if any.
func (t *Topology) ResidueForAtom(i int64) (Residue, bool) {
	for _, r := range t.residues {
		if r.Contains(i) {
			return r, true
		}
	}
	return Residue{}, false
}

// AddBond inserts an unordered bond {i,j} with the given order. Adding an
// existing bond updates its order in place. Inserting marks derived sets
// dirty; they are recomputed lazily on next access.
func (t *Topology) AddBond(i, j int64, order BondOrder) {
	if i == j {
		return
	}
	b := newBond(i, j)
	if _, exists := t.bondOrder[b]; !exists {
		t.bonds = append(t.bonds, b)
	}
	t.bondOrder[b] = order
	t.dirty = true
}

// RemoveBond removes the unordered bond {i,j}, if present.
func (t *Topology) RemoveBond(i, j int64) {
	b := newBond(i, j)
	if _, exists := t.bondOrder[b]; !exists {
		return
	}
	delete(t.bondOrder, b)
	for k, bb := range t.bonds {
		if bb == b {
			t.bonds = append(t.bonds[:k], t.bonds[k+1:]...)
			break
		}
	}
	t.dirty = true
}

// Bonds returns the ordered set of bonds.
func (t *Topology) Bonds() []Bond { return t.bonds }

// BondOrder returns the order of bond {i,j}, or BondUnknown if absent.
func (t *Topology) BondOrder(i, j int64) BondOrder {
	return t.bondOrder[newBond(i, j)]
}

// HasBond reports whether atoms i and j are bonded.
func (t *Topology) HasBond(i, j int64) bool {
	_, ok := t.bondOrder[newBond(i, j)]
	return ok
}

// neighbors returns the sorted neighbor list of every bonded atom in the
// bond graph, keyed by atom index.
func (t *Topology) neighbors() map[int64][]int64 {
	adj := make(map[int64][]int64)
	for _, b := range t.bonds {
		adj[b.A] = append(adj[b.A], b.B)
		adj[b.B] = append(adj[b.B], b.A)
	}
	for k := range adj {
		sort.Slice(adj[k], func(i, j int) bool { return adj[k][i] < adj[k][j] })
	}
	return adj
}

// recompute derives angles, dihedrals, and impropers from the current
// bond graph as a pure function, per spec.md §4.4. It is O(degree^3) as
// specified in DESIGN NOTES.
func (t *Topology) recompute() {
	adj := t.neighbors()

	angleSeen := make(map[Angle]bool)
	var angles []Angle
	for b, neighbors := range adj {
		for _, a := range neighbors {
			for _, c := range neighbors {
				if a == c {
					continue
				}
				lo, hi := a, c
				if lo > hi {
					lo, hi = hi, lo
				}
				ang := Angle{lo, b, hi}
				if !angleSeen[ang] {
					angleSeen[ang] = true
					angles = append(angles, ang)
				}
			}
		}
	}
	sort.Slice(angles, func(i, j int) bool { return angleLess(angles[i], angles[j]) })

	dihedralSeen := make(map[Dihedral]bool)
	var dihedrals []Dihedral
	for _, ab := range t.bonds {
		for _, bc := range [][2]int64{{ab.A, ab.B}, {ab.B, ab.A}} {
			b, c := bc[0], bc[1]
			for _, a := range adj[b] {
				if a == c {
					continue
				}
				for _, d := range adj[c] {
					if d == b || d == a {
						continue
					}
					dh := canonicalDihedral(a, b, c, d)
					if !dihedralSeen[dh] {
						dihedralSeen[dh] = true
						dihedrals = append(dihedrals, dh)
					}
				}
			}
		}
	}
	sort.Slice(dihedrals, func(i, j int) bool { return dihedralLess(dihedrals[i], dihedrals[j]) })

	improperSeen := make(map[Improper]bool)
	var impropers []Improper
	for center, ns := range adj {
		if len(ns) < 3 {
			continue
		}
		for x := 0; x < len(ns); x++ {
			for y := x + 1; y < len(ns); y++ {
				for z := y + 1; z < len(ns); z++ {
					imp := Improper{center, ns[x], ns[y], ns[z]}
					if !improperSeen[imp] {
						improperSeen[imp] = true
						impropers = append(impropers, imp)
					}
				}
			}
		}
	}
	sort.Slice(impropers, func(i, j int) bool { return improperLess(impropers[i], impropers[j]) })

	t.angles = angles
	t.dihedrals = dihedrals
	t.impropers = impropers
	t.dirty = false
}

// canonicalDihedral orients (a,b,c,d) so that (a,b) < (d,c)
// lexicographically, per spec.md §4.4.
func canonicalDihedral(a, b, c, d int64) Dihedral {
	if lessPair(a, b, d, c) {
		return Dihedral{a, b, c, d}
	}
	return Dihedral{d, c, b, a}
}

func lessPair(a1, b1, a2, b2 int64) bool {
	if a1 != a2 {
		return a1 < a2
	}
	return b1 < b2
}

func angleLess(a, b Angle) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	if a.B != b.B {
		return a.B < b.B
	}
	return a.C < b.C
}

func dihedralLess(a, b Dihedral) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	if a.B != b.B {
		return a.B < b.B
	}
	if a.C != b.C {
		return a.C < b.C
	}
	return a.D < b.D
}

func improperLess(a, b Improper) bool {
	if a.Center != b.Center {
		return a.Center < b.Center
	}
	if a.I != b.I {
		return a.I < b.I
	}
	if a.K != b.K {
		return a.K < b.K
	}
	return a.M < b.M
}

// Angles returns the derived angle set, recomputing it first if the bond
// graph has changed since the last computation.
func (t *Topology) Angles() []Angle {
	if t.dirty {
		t.recompute()
	}
	return t.angles
}

// Dihedrals returns the derived dihedral set, recomputing if needed.
func (t *Topology) Dihedrals() []Dihedral {
	if t.dirty {
		t.recompute()
	}
	return t.dihedrals
}

// Impropers returns the derived improper set, recomputing if needed.
func (t *Topology) Impropers() []Improper {
	if t.dirty {
		t.recompute()
	}
	return t.impropers
}

// IsAngle reports whether (a,b,c) is a member of the derived angle set.
func (t *Topology) IsAngle(a, b, c int64) bool {
	lo, hi := a, c
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, ang := range t.Angles() {
		if ang == (Angle{lo, b, hi}) {
			return true
		}
	}
	return false
}

// IsDihedral reports whether (a,b,c,d) is a member of the derived
// dihedral set, under either orientation.
func (t *Topology) IsDihedral(a, b, c, d int64) bool {
	canon := canonicalDihedral(a, b, c, d)
	for _, dh := range t.Dihedrals() {
		if dh == canon {
			return true
		}
	}
	return false
}

// IsImproper reports whether (center, i, k, m) is a member of the derived
// improper set, regardless of the order i, k, m are given in.
func (t *Topology) IsImproper(center, i, k, m int64) bool {
	ns := []int64{i, k, m}
	sort.Slice(ns, func(x, y int) bool { return ns[x] < ns[y] })
	want := Improper{center, ns[0], ns[1], ns[2]}
	for _, imp := range t.Impropers() {
		if imp == want {
			return true
		}
	}
	return false
}

// FormulaAtoms returns the count of atoms per Type string, a small
// derived-data helper supplementing the distilled spec (SPEC_FULL.md §3).
func (t *Topology) FormulaAtoms() map[string]int {
	out := make(map[string]int)
	for _, a := range t.atoms {
		out[a.EffectiveType()]++
	}
	return out
}

// Clone deep-copies the topology, including atoms, residues, and bonds.
// Derived sets are not copied; they are recomputed lazily on first access
// of the clone.
func (t *Topology) Clone() *Topology {
	out := NewTopology()
	out.atoms = make([]Atom, len(t.atoms))
	for i, a := range t.atoms {
		out.atoms[i] = a.clone()
	}
	out.residues = make([]Residue, len(t.residues))
	for i, r := range t.residues {
		out.residues[i] = r.clone()
	}
	out.bonds = append([]Bond(nil), t.bonds...)
	out.bondOrder = make(map[Bond]BondOrder, len(t.bondOrder))
	for k, v := range t.bondOrder {
		out.bondOrder[k] = v
	}
	out.dirty = true
	return out
}
