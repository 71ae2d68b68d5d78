package pdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.pdb")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSingleModel(t *testing.T) {
	content := "CRYST1   20.000   20.000   20.000  90.00  90.00  90.00 P 1           1\n" +
		"ATOM      1  O   HOH A   1      10.000  10.000  10.000  1.00  0.00           O\n" +
		"ATOM      2  H1  HOH A   1      10.757  10.586  10.000  1.00  0.00           H\n" +
		"ATOM      3  H2  HOH A   1       9.243  10.586  10.000  1.00  0.00           H\n" +
		"CONECT    1    2\n" +
		"CONECT    1    3\n" +
		"END\n"
	path := writeFile(t, content)

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
	if frame.Size() != 3 {
		t.Fatalf("size = %d, want 3", frame.Size())
	}
	if !frame.Topology.HasBond(0, 1) || !frame.Topology.HasBond(0, 2) {
		t.Fatal("expected CONECT bonds 0-1 and 0-2")
	}
	a, b, c := frame.Cell.Lengths()
	if a != 20 || b != 20 || c != 20 {
		t.Fatalf("cell lengths = %v %v %v, want 20 20 20", a, b, c)
	}
	if res, ok := frame.Topology.ResidueForAtom(0); !ok || res.Name != "HOH" {
		t.Fatalf("residue = %+v ok=%v", res, ok)
	}
}

func TestGuessBondsAfterReadSkippedWhenConectPresent(t *testing.T) {
	content := "ATOM      1  O   HOH A   1      10.000  10.000  10.000  1.00  0.00           O\n" +
		"ATOM      2  H1  HOH A   1      10.757  10.586  10.000  1.00  0.00           H\n" +
		"ATOM      3  H2  HOH A   1       9.243  10.586  10.000  1.00  0.00           H\n" +
		"CONECT    1    2\n" +
		"CONECT    1    3\n" +
		"END\n"
	path := writeFile(t, content)

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

	guesser, ok := fmtAdapter.(chemfiles.BondGuesser)
	if !ok {
		t.Fatal("pdb format should implement BondGuesser")
	}
	if guesser.GuessBondsAfterRead() {
		t.Fatal("GuessBondsAfterRead() = true after a step with explicit CONECT records, want false")
	}
}

func TestGuessBondsAfterReadEnabledWithoutConect(t *testing.T) {
	content := "ATOM      1  O   HOH A   1      10.000  10.000  10.000  1.00  0.00           O\n" +
		"ATOM      2  H1  HOH A   1      10.757  10.586  10.000  1.00  0.00           H\n" +
		"ATOM      3  H2  HOH A   1       9.243  10.586  10.000  1.00  0.00           H\n" +
		"END\n"
	path := writeFile(t, content)

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

	guesser, ok := fmtAdapter.(chemfiles.BondGuesser)
	if !ok {
		t.Fatal("pdb format should implement BondGuesser")
	}
	if !guesser.GuessBondsAfterRead() {
		t.Fatal("GuessBondsAfterRead() = false for a step with no CONECT records, want true")
	}
}

func TestReadMultiModel(t *testing.T) {
	content := "MODEL        1\n" +
		"ATOM      1  C   MOL A   1       0.000   0.000   0.000  1.00  0.00           C\n" +
		"ENDMDL\n" +
		"MODEL        2\n" +
		"ATOM      1  C   MOL A   1       1.000   0.000   0.000  1.00  0.00           C\n" +
		"ENDMDL\n"
	path := writeFile(t, content)

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
	if n != 2 {
		t.Fatalf("NSteps() = %d, want 2", n)
	}

	frame := chemfiles.NewFrame()
	if err := fmtAdapter.ReadStep(1, frame); err != nil {
		t.Fatal(err)
	}
	if frame.Positions[0][0] != 1 {
		t.Fatalf("model 2 x = %v, want 1", frame.Positions[0][0])
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdb")

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
	top.AddBond(0, 1, chemfiles.BondDouble)
	frame := chemfiles.NewFrameWithTopology(top, chemfiles.NewOrthorhombicCell(10, 10, 10))
	frame.Positions[0] = chemfiles.NewVector3D(0, 0, 0)
	frame.Positions[1] = chemfiles.NewVector3D(1.2, 0, 0)

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
	if !contains(s, "CRYST1") || !contains(s, "CONECT") || !contains(s, "END") {
		t.Fatalf("unexpected output:\n%s", s)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
