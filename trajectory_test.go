package chemfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/molcore/chemfiles/fileio"
)

// testFormat is a minimal line-oriented stand-in format used only to
// exercise the Trajectory engine (step indexing, overrides, Close
// semantics) without depending on any real formats/* adapter.
type testFormat struct {
	file          *fileio.File
	mode          fileio.Mode
	stepPositions []int64
}

func newTestFormat(file *fileio.File, mode fileio.Mode) (Format, error) {
	f := &testFormat{file: file, mode: mode}
	if mode == fileio.Read {
		if err := f.index(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *testFormat) index() error {
	for {
		pos, err := f.file.Tellg()
		if err != nil {
			return err
		}
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		if line == "" {
			break
		}
		f.stepPositions = append(f.stepPositions, pos)
	}
	return f.file.Rewind()
}

func (f *testFormat) NSteps() (int, error) { return len(f.stepPositions), nil }

func (f *testFormat) Read(frame *Frame) error {
	line, err := f.file.ReadLine()
	if err != nil {
		return NewFileError("testFormat: eof")
	}
	return f.populate(line, frame)
}

func (f *testFormat) ReadStep(i int, frame *Frame) error {
	if err := f.file.Seekg(f.stepPositions[i]); err != nil {
		return err
	}
	line, err := f.file.ReadLine()
	if err != nil {
		return err
	}
	return f.populate(line, frame)
}

func (f *testFormat) populate(line string, frame *Frame) error {
	x, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return NewFormatError("testFormat: bad line %q", line)
	}
	top := NewTopology()
	top.AddAtom(NewAtom("X"))
	frame.Topology = top
	frame.Positions = []Vector3D{NewVector3D(x, 0, 0)}
	return nil
}

func (f *testFormat) Write(frame *Frame) error {
	return f.file.WriteString(fmt.Sprintf("%v\n", frame.Positions[0].X()))
}

func init() {
	MustRegisterFormat(FactoryInfo{
		Name:          "TESTFORMAT",
		Extension:     ".trajtest",
		SupportsRead:  true,
		SupportsWrite: true,
	}, newTestFormat)
}

func writeTrajTestFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "traj.trajtest")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrajectoryOpenRejectsUnsupportedMode(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0")

	_, err := Open(path, fileio.Append, "", fileio.None)
	if err == nil {
		t.Fatal("expected an error opening in Append mode (not supported)")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError, got %T: %v", err, err)
	}
}

func TestTrajectorySequentialReadAdvancesStepAndDone(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0", "2.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer traj.Close()

	n, err := traj.NSteps()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("NSteps() = %d, want 2", n)
	}

	if traj.Done() {
		t.Fatal("Done() = true before any read")
	}

	f0, err := traj.Read()
	if err != nil {
		t.Fatal(err)
	}
	if f0.Step != 0 {
		t.Fatalf("first frame Step = %d, want 0", f0.Step)
	}
	if traj.Done() {
		t.Fatal("Done() = true after first of two reads")
	}

	f1, err := traj.Read()
	if err != nil {
		t.Fatal(err)
	}
	if f1.Step != 1 {
		t.Fatalf("second frame Step = %d, want 1", f1.Step)
	}
	if !traj.Done() {
		t.Fatal("Done() = false after reading the final step")
	}
}

func TestTrajectoryReadStepRandomAccess(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0", "2.0", "3.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer traj.Close()

	f, err := traj.ReadStep(2)
	if err != nil {
		t.Fatal(err)
	}
	if f.Positions[0].X() != 3.0 {
		t.Fatalf("ReadStep(2) x = %v, want 3.0", f.Positions[0].X())
	}

	_, err = traj.ReadStep(99)
	if err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestTrajectorySetTopologyOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer traj.Close()

	override := NewTopology()
	override.AddAtom(NewAtom("He"))
	traj.SetTopology(override)

	f, err := traj.Read()
	if err != nil {
		t.Fatal(err)
	}
	if f.Topology.Atom(0).Name != "He" {
		t.Fatalf("overridden topology atom name = %q, want He", f.Topology.Atom(0).Name)
	}
}

func TestTrajectorySetTopologyOverrideRejectsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer traj.Close()

	override := NewTopology()
	override.AddAtom(NewAtom("He"))
	override.AddAtom(NewAtom("Ne"))
	traj.SetTopology(override)

	_, err = traj.Read()
	if err == nil {
		t.Fatal("expected an error for a topology override with mismatched atom count")
	}
}

func TestTrajectorySetCellOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer traj.Close()

	traj.SetCell(NewOrthorhombicCell(20, 20, 20))

	f, err := traj.Read()
	if err != nil {
		t.Fatal(err)
	}
	if f.Cell.Shape() != CellOrthorhombic {
		t.Fatalf("overridden cell shape = %v, want CellOrthorhombic", f.Cell.Shape())
	}
}

func TestTrajectoryWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.trajtest")

	wtraj, err := Open(path, fileio.Write, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	top := NewTopology()
	top.AddAtom(NewAtom("X"))
	frame := NewFrameWithTopology(top, NewInfiniteCell())
	frame.Positions[0] = NewVector3D(42, 0, 0)
	if err := wtraj.Write(frame); err != nil {
		t.Fatal(err)
	}
	if err := wtraj.Close(); err != nil {
		t.Fatal(err)
	}

	rtraj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	defer rtraj.Close()

	got, err := rtraj.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.Positions[0].X() != 42 {
		t.Fatalf("round trip x = %v, want 42", got.Positions[0].X())
	}
}

func TestTrajectoryClosedOperationsFail(t *testing.T) {
	dir := t.TempDir()
	path := writeTrajTestFile(t, dir, "1.0")

	traj, err := Open(path, fileio.Read, "", fileio.None)
	if err != nil {
		t.Fatal(err)
	}
	if err := traj.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := traj.Read(); err == nil {
		t.Fatal("expected an error reading from a closed trajectory")
	}
	if _, err := traj.NSteps(); err == nil {
		t.Fatal("expected an error calling NSteps on a closed trajectory")
	}
	if err := traj.Close(); err != nil {
		t.Fatal("Close() on an already-closed trajectory should be a no-op, not an error")
	}
}
