package sdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

// fixture mirrors a tiny CTFile record for a 4-atom, 3-bond molecule (the
// shape of the round-trip scenario this format's operations target).
const fixture = "methanol\n" +
	"  molcore\n\n" +
	"  4  3  0  0  0  0  0  0  0  0999 V2000\n" +
	"    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"    1.4000    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"   -0.5000    0.9000    0.0000 H   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"   -0.5000   -0.9000    0.0000 H   0  0  0  0  0  0  0  0  0  0  0  0\n" +
	"  1  3  1  0  0  0  0\n" +
	"  2  3  2  0  0  0  0\n" +
	"  3  4  3  0  0  0  0\n" +
	"M  END\n" +
	"$$$$\n"

func TestReadRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mol.sdf")
	if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}

	file, err := fileio.Open(path, fileio.Read, fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	fmtAdapter, err := newFormat(file, fileio.Read)
	if err != nil {
		t.Fatal(err)
	}
	n, err := fmtAdapter.NSteps()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("NSteps() = %d, want 1", n)
	}

	frame := chemfiles.NewFrame()
	if err := fmtAdapter.Read(frame); err != nil {
		t.Fatal(err)
	}
	if frame.Size() != 4 {
		t.Fatalf("size = %d, want 4", frame.Size())
	}
	if !frame.Topology.HasBond(0, 2) || !frame.Topology.HasBond(1, 2) || !frame.Topology.HasBond(2, 3) {
		t.Fatal("missing expected bonds")
	}
	if frame.Topology.BondOrder(1, 2) != chemfiles.BondDouble {
		t.Fatalf("bond 2-3 order = %v, want double", frame.Topology.BondOrder(1, 2))
	}
	if frame.Topology.BondOrder(2, 3) != chemfiles.BondTriple {
		t.Fatalf("bond 3-4 order = %v, want triple", frame.Topology.BondOrder(2, 3))
	}
}

func TestWriteProducesExpectedCountsAndBondLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.sdf")

	wfile, err := fileio.Open(path, fileio.Write, fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	wfmt, err := newFormat(wfile, fileio.Write)
	if err != nil {
		t.Fatal(err)
	}

	top := chemfiles.NewTopology()
	top.AddAtom(chemfiles.NewAtom("C"))
	top.AddAtom(chemfiles.NewAtom("O"))
	top.AddAtom(chemfiles.NewAtom("H"))
	top.AddAtom(chemfiles.NewAtom("H"))
	top.AddBond(0, 2, chemfiles.BondSingle)
	top.AddBond(1, 2, chemfiles.BondDouble)
	top.AddBond(2, 3, chemfiles.BondTriple)

	frame := chemfiles.NewFrameWithTopology(top, chemfiles.NewInfiniteCell())
	frame.SetProperty("name", chemfiles.NewStringProperty("methanol"))

	if err := wfmt.Write(frame); err != nil {
		t.Fatal(err)
	}
	if err := wfile.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "  4  3  0  0  0  0  0  0  0  0999 V2000") {
		t.Fatalf("missing expected counts line in:\n%s", s)
	}
	if !strings.Contains(s, "  1  3  1  0  0  0  0") {
		t.Fatalf("missing expected bond line (C-H single) in:\n%s", s)
	}
	if !strings.Contains(s, "  2  3  2  0  0  0  0") {
		t.Fatalf("missing expected bond line (O-H double) in:\n%s", s)
	}
	if !strings.Contains(s, "  3  4  3  0  0  0  0") {
		t.Fatalf("missing expected bond line (H-H triple) in:\n%s", s)
	}
}
