package chemfiles

import "testing"

func TestTopologyAddAtomAndBond(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("C"))
	top.AddAtom(NewAtom("O"))
	top.AddAtom(NewAtom("N"))

	if top.AtomCount() != 3 {
		t.Fatalf("AtomCount() = %d, want 3", top.AtomCount())
	}

	top.AddBond(0, 1, BondDouble)
	top.AddBond(1, 2, BondSingle)

	if !top.HasBond(0, 1) || !top.HasBond(1, 0) {
		t.Fatal("HasBond(0,1) = false, want true (order-independent)")
	}
	if top.BondOrder(0, 1) != BondDouble {
		t.Fatalf("BondOrder(0,1) = %v, want BondDouble", top.BondOrder(0, 1))
	}
	if len(top.Bonds()) != 2 {
		t.Fatalf("len(Bonds()) = %d, want 2", len(top.Bonds()))
	}

	top.RemoveBond(0, 1)
	if top.HasBond(0, 1) {
		t.Fatal("HasBond(0,1) = true after RemoveBond, want false")
	}
	if len(top.Bonds()) != 1 {
		t.Fatalf("len(Bonds()) after remove = %d, want 1", len(top.Bonds()))
	}
}

func TestTopologyAddBondIsIdempotentOnOrder(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("C"))
	top.AddAtom(NewAtom("C"))

	top.AddBond(0, 1, BondSingle)
	top.AddBond(1, 0, BondAromatic)

	if len(top.Bonds()) != 1 {
		t.Fatalf("len(Bonds()) = %d, want 1 (re-adding updates order in place)", len(top.Bonds()))
	}
	if top.BondOrder(0, 1) != BondAromatic {
		t.Fatalf("BondOrder(0,1) = %v, want BondAromatic", top.BondOrder(0, 1))
	}
}

func TestTopologyDerivedAnglesAndDihedrals(t *testing.T) {
	// linear chain 0-1-2-3
	top := NewTopology()
	for i := 0; i < 4; i++ {
		top.AddAtom(NewAtom("C"))
	}
	top.AddBond(0, 1, BondSingle)
	top.AddBond(1, 2, BondSingle)
	top.AddBond(2, 3, BondSingle)

	if !top.IsAngle(0, 1, 2) {
		t.Fatal("IsAngle(0,1,2) = false, want true")
	}
	if !top.IsAngle(2, 1, 0) {
		t.Fatal("IsAngle(2,1,0) = false, want true (order independent in i,k)")
	}
	if !top.IsAngle(1, 2, 3) {
		t.Fatal("IsAngle(1,2,3) = false, want true")
	}
	if top.IsAngle(0, 1, 3) {
		t.Fatal("IsAngle(0,1,3) = true, want false (3 is not bonded to 1)")
	}

	if !top.IsDihedral(0, 1, 2, 3) {
		t.Fatal("IsDihedral(0,1,2,3) = false, want true")
	}
	if !top.IsDihedral(3, 2, 1, 0) {
		t.Fatal("IsDihedral(3,2,1,0) = false, want true (reverse orientation)")
	}
}

func TestTopologyDerivedImpropers(t *testing.T) {
	// center 0 bonded to 1, 2, 3 (e.g. a trisubstituted planar center)
	top := NewTopology()
	for i := 0; i < 4; i++ {
		top.AddAtom(NewAtom("N"))
	}
	top.AddBond(0, 1, BondSingle)
	top.AddBond(0, 2, BondSingle)
	top.AddBond(0, 3, BondSingle)

	if !top.IsImproper(0, 1, 2, 3) {
		t.Fatal("IsImproper(0,1,2,3) = false, want true")
	}
	if !top.IsImproper(0, 3, 1, 2) {
		t.Fatal("IsImproper(0,3,1,2) = false, want true (order independent in neighbors)")
	}
	if len(top.Impropers()) != 1 {
		t.Fatalf("len(Impropers()) = %d, want 1", len(top.Impropers()))
	}
}

func TestTopologyRemoveAtomShiftsBondsAndResidues(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("C"))
	top.AddAtom(NewAtom("O"))
	top.AddAtom(NewAtom("N"))

	top.AddBond(0, 1, BondSingle)
	top.AddBond(1, 2, BondDouble)

	res := NewResidue("MOL")
	res.AddAtom(0)
	res.AddAtom(1)
	res.AddAtom(2)
	top.AddResidue(res)

	top.RemoveAtom(1) // removes the middle atom "O"

	if top.AtomCount() != 2 {
		t.Fatalf("AtomCount() = %d, want 2", top.AtomCount())
	}
	if top.Atom(0).Name != "C" || top.Atom(1).Name != "N" {
		t.Fatalf("atoms after remove = %q, %q, want C, N", top.Atom(0).Name, top.Atom(1).Name)
	}
	if top.HasBond(0, 1) {
		t.Fatal("HasBond(0,1) = true after removing the middle atom, want false (both bonds touched it)")
	}
	if len(top.Bonds()) != 0 {
		t.Fatalf("len(Bonds()) = %d, want 0", len(top.Bonds()))
	}
	if got, _ := top.ResidueForAtom(1); len(got.Atoms()) != 2 {
		t.Fatalf("residue after remove has %d atoms, want 2", len(got.Atoms()))
	}
}

func TestTopologyResizeTruncatesAndPads(t *testing.T) {
	top := NewTopology()
	for i := 0; i < 4; i++ {
		top.AddAtom(NewAtom("C"))
	}
	top.AddBond(0, 1, BondSingle)
	top.AddBond(2, 3, BondSingle)

	top.Resize(2)
	if top.AtomCount() != 2 {
		t.Fatalf("AtomCount() = %d, want 2", top.AtomCount())
	}
	if len(top.Bonds()) != 1 {
		t.Fatalf("len(Bonds()) = %d, want 1 (bond 2-3 dropped)", len(top.Bonds()))
	}

	top.Resize(5)
	if top.AtomCount() != 5 {
		t.Fatalf("AtomCount() = %d, want 5", top.AtomCount())
	}
	if top.Atom(4).Name != "" {
		t.Fatalf("padded atom name = %q, want empty", top.Atom(4).Name)
	}
}

func TestTopologyCloneIsIndependent(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("C"))
	top.AddAtom(NewAtom("O"))
	top.AddBond(0, 1, BondSingle)

	clone := top.Clone()
	clone.AddAtom(NewAtom("N"))
	clone.AddBond(1, 2, BondDouble)

	if top.AtomCount() != 2 {
		t.Fatalf("original AtomCount() = %d, want 2 (mutating clone should not affect original)", top.AtomCount())
	}
	if len(top.Bonds()) != 1 {
		t.Fatalf("original len(Bonds()) = %d, want 1", len(top.Bonds()))
	}
	if clone.AtomCount() != 3 {
		t.Fatalf("clone AtomCount() = %d, want 3", clone.AtomCount())
	}
}

func TestTopologyFormulaAtoms(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("H"))
	top.AddAtom(NewAtom("H"))
	top.AddAtom(NewAtom("O"))

	formula := top.FormulaAtoms()
	if formula["H"] != 2 || formula["O"] != 1 {
		t.Fatalf("FormulaAtoms() = %v, want {H:2 O:1}", formula)
	}
}
