package lammpsdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

const fixture = "LAMMPS data file\n\n" +
	"2 atoms\n" +
	"1 bonds\n" +
	"1 atom types\n\n" +
	"0.0 10.0 xlo xhi\n" +
	"0.0 10.0 ylo yhi\n" +
	"0.0 10.0 zlo zhi\n\n" +
	"Atoms # full\n\n" +
	"1 1 1 0.0 0.0 0.0 0.0\n" +
	"2 1 1 0.0 1.0 0.0 0.0\n\n" +
	"Bonds\n\n" +
	"1 1 1 2\n"

func TestReadBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.data")
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
	if frame.Size() != 2 {
		t.Fatalf("size = %d, want 2", frame.Size())
	}
	if !frame.Topology.HasBond(0, 1) {
		t.Fatal("expected bond 0-1")
	}
	a, b, c := frame.Cell.Lengths()
	if a != 10 || b != 10 || c != 10 {
		t.Fatalf("cell = %v %v %v, want 10 10 10", a, b, c)
	}
	if frame.Positions[1][0] != 1.0 {
		t.Fatalf("position[1].x = %v, want 1.0", frame.Positions[1][0])
	}
}

const atomicFixture = "LAMMPS data file\n\n" +
	"2 atoms\n" +
	"1 atom types\n\n" +
	"0.0 10.0 xlo xhi\n" +
	"0.0 10.0 ylo yhi\n" +
	"0.0 10.0 zlo zhi\n\n" +
	"Atoms # atomic\n\n" +
	"1 1 0.0 0.0 0.0\n" +
	"2 1 2.0 0.0 0.0\n"

func TestReadAtomicStyle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atomic.data")
	if err := os.WriteFile(path, []byte(atomicFixture), 0644); err != nil {
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
	frame := chemfiles.NewFrame()
	if err := fmtAdapter.Read(frame); err != nil {
		t.Fatal(err)
	}
	if frame.Size() != 2 {
		t.Fatalf("size = %d, want 2", frame.Size())
	}
	if frame.Positions[1][0] != 2.0 {
		t.Fatalf("position[1].x = %v, want 2.0", frame.Positions[1][0])
	}
}

const molecularFixture = "LAMMPS data file\n\n" +
	"2 atoms\n" +
	"1 atom types\n\n" +
	"0.0 10.0 xlo xhi\n" +
	"0.0 10.0 ylo yhi\n" +
	"0.0 10.0 zlo zhi\n\n" +
	"Atoms # molecular\n\n" +
	"1 1 1 0.0 0.0 0.0\n" +
	"2 1 1 0.0 3.0 0.0\n"

func TestReadMolecularStyle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "molecular.data")
	if err := os.WriteFile(path, []byte(molecularFixture), 0644); err != nil {
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
	frame := chemfiles.NewFrame()
	if err := fmtAdapter.Read(frame); err != nil {
		t.Fatal(err)
	}
	if frame.Size() != 2 {
		t.Fatalf("size = %d, want 2", frame.Size())
	}
	if frame.Positions[1][1] != 3.0 {
		t.Fatalf("position[1].y = %v, want 3.0", frame.Positions[1][1])
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.data")

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
	top.AddAtom(chemfiles.NewAtom("H"))
	top.AddBond(0, 1, chemfiles.BondSingle)
	frame := chemfiles.NewFrameWithTopology(top, chemfiles.NewOrthorhombicCell(10, 10, 10))
	frame.Positions[1] = chemfiles.NewVector3D(1, 0, 0)

	if err := wfmt.Write(frame); err != nil {
		t.Fatal(err)
	}
	if err := wfile.Close(); err != nil {
		t.Fatal(err)
	}

	rfile, err := fileio.Open(path, fileio.Read, fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer rfile.Close()
	rfmt, err := newFormat(rfile, fileio.Read)
	if err != nil {
		t.Fatal(err)
	}
	got := chemfiles.NewFrame()
	if err := rfmt.Read(got); err != nil {
		t.Fatal(err)
	}
	if got.Size() != 2 {
		t.Fatalf("round trip size = %d, want 2", got.Size())
	}
	if !got.Topology.HasBond(0, 1) {
		t.Fatal("round trip lost bond 0-1")
	}
}
