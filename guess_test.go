package chemfiles

import "testing"

func hhFrame(distance float64) *Frame {
	top := NewTopology()
	top.AddAtom(NewAtom("H"))
	top.AddAtom(NewAtom("H"))
	f := NewFrameWithTopology(top, NewInfiniteCell())
	f.Positions[0] = NewVector3D(0, 0, 0)
	f.Positions[1] = NewVector3D(distance, 0, 0)
	return f
}

func TestGuessTopologyBondsCloseAtoms(t *testing.T) {
	f := hhFrame(0.75)
	if err := GuessTopology(f); err != nil {
		t.Fatal(err)
	}
	if !f.Topology.HasBond(0, 1) {
		t.Fatal("HasBond(0,1) = false for H-H at 0.75A, want true")
	}
}

func TestGuessTopologyDoesNotBondFarAtoms(t *testing.T) {
	f := hhFrame(2.0)
	if err := GuessTopology(f); err != nil {
		t.Fatal(err)
	}
	if f.Topology.HasBond(0, 1) {
		t.Fatal("HasBond(0,1) = true for H-H at 2.0A, want false")
	}
}

func TestGuessTopologyDoesNotBondOverlappingAtoms(t *testing.T) {
	// distance below 0.5*min(r_i, r_j) = 0.6A is too close to be a real bond.
	f := hhFrame(0.1)
	if err := GuessTopology(f); err != nil {
		t.Fatal(err)
	}
	if f.Topology.HasBond(0, 1) {
		t.Fatal("HasBond(0,1) = true for overlapping H-H at 0.1A, want false")
	}
}

func TestGuessTopologyIsIdempotent(t *testing.T) {
	f := hhFrame(0.75)
	if err := GuessTopology(f); err != nil {
		t.Fatal(err)
	}
	if err := GuessTopology(f); err != nil {
		t.Fatal(err)
	}
	if len(f.Topology.Bonds()) != 1 {
		t.Fatalf("len(Bonds()) after guessing twice = %d, want 1", len(f.Topology.Bonds()))
	}
}

func TestGuessTopologyUnknownElementFails(t *testing.T) {
	top := NewTopology()
	top.AddAtom(NewAtom("Xx"))
	top.AddAtom(NewAtom("Xx"))
	f := NewFrameWithTopology(top, NewInfiniteCell())
	f.Positions[0] = NewVector3D(0, 0, 0)
	f.Positions[1] = NewVector3D(1, 0, 0)

	err := GuessTopology(f)
	if err == nil {
		t.Fatal("expected an error for an unknown element")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
}
