package selection

import (
	"testing"

	"github.com/molcore/chemfiles"
)

func makeTestFrame(n int) *chemfiles.Frame {
	top := chemfiles.NewTopology()
	for i := 0; i < n; i++ {
		name := "C"
		if i%3 == 0 {
			name = "O"
		}
		top.AddAtom(chemfiles.NewAtom(name))
	}
	frame := chemfiles.NewFrameWithTopology(top, chemfiles.NewInfiniteCell())
	for i := 0; i < n; i++ {
		frame.Positions[i] = chemfiles.NewVector3D(float64(i), 0, 0)
	}
	return frame
}

func TestSelectionNameAndIndex(t *testing.T) {
	frame := makeTestFrame(20)

	sel, err := Compile("name == O and index < 10", 1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := sel.Indices(frame)
	if err != nil {
		t.Fatal(err)
	}

	want := []int64{0, 3, 6, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSelectionAllNone(t *testing.T) {
	frame := makeTestFrame(5)

	all, err := Compile("all", 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := all.Indices(frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("all: got %d indices, want 5", len(got))
	}

	none, err := Compile("none", 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err = none.Indices(frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("none: got %d indices, want 0", len(got))
	}
}

func TestSelectionBonded(t *testing.T) {
	frame := makeTestFrame(4)
	frame.Topology.AddBond(0, 1, chemfiles.BondSingle)
	frame.Topology.AddBond(1, 2, chemfiles.BondSingle)

	sel, err := Compile("is_bonded(#1, #2)", 2)
	if err != nil {
		t.Fatal(err)
	}

	tuples, err := sel.Evaluate(frame)
	if err != nil {
		t.Fatal(err)
	}

	want := map[[2]int64]bool{{0, 1}: true, {1, 0}: true, {1, 2}: true, {2, 1}: true}
	if len(tuples) != len(want) {
		t.Fatalf("got %v, want %v", tuples, want)
	}
	for _, tuple := range tuples {
		key := [2]int64{tuple[0], tuple[1]}
		if !want[key] {
			t.Fatalf("unexpected tuple %v", tuple)
		}
	}
}

func TestSelectionPrecedenceAndNot(t *testing.T) {
	frame := makeTestFrame(6)

	sel, err := Compile("not name == O and index < 3", 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := sel.Indices(frame)
	if err != nil {
		t.Fatal(err)
	}
	// "not" binds tighter than "and": (not name==O) and index<3
	want := map[int64]bool{1: true, 2: true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("unexpected index %d in %v", v, got)
		}
	}
}

func TestSelectionSyntaxError(t *testing.T) {
	_, err := Compile("name ==", 1)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if _, ok := err.(*chemfiles.SelectionError); !ok {
		t.Fatalf("expected *chemfiles.SelectionError, got %T", err)
	}
}

func TestSelectionUnknownIdentifier(t *testing.T) {
	_, err := Compile("bogus == 1", 1)
	if err == nil {
		t.Fatal("expected an error for an unknown identifier")
	}
}
