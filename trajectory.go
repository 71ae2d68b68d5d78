package chemfiles

import (
	"github.com/molcore/chemfiles/fileio"
)

// Trajectory is the engine: it owns a Format bound to a File, and adds
// step indexing, topology/cell overrides, and EOF bookkeeping on top of
// the format's raw read/write contract, per spec.md §4.3.
type Trajectory struct {
	file   *fileio.File
	format Format
	info   FactoryInfo

	stepIndex int
	done      bool
	closed    bool

	topoOverride *Topology
	cellOverride *UnitCell
}

// Open opens path for the given mode. formatHint, if non-empty, forces a
// specific registered format name instead of extension inference.
// compression controls the file substrate's decompression; fileio.Auto
// infers it from path's suffix.
func Open(path string, mode fileio.Mode, formatHint string, compression fileio.Compression) (*Trajectory, error) {
	rf, err := dispatch(path, formatHint)
	if err != nil {
		return nil, err
	}

	if mode == fileio.Read && !rf.info.SupportsRead {
		return nil, NewFormatError("format %q does not support reading", rf.info.Name)
	}
	if mode == fileio.Write && !rf.info.SupportsWrite {
		return nil, NewFormatError("format %q does not support writing", rf.info.Name)
	}
	if mode == fileio.Append && !rf.info.SupportsAppend {
		return nil, NewFormatError("format %q does not support appending", rf.info.Name)
	}

	file, err := fileio.Open(path, mode, compression)
	if err != nil {
		return nil, err
	}

	format, err := rf.factory(file, mode)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Trajectory{file: file, format: format, info: rf.info}, nil
}

// NSteps returns the number of steps in the trajectory.
func (t *Trajectory) NSteps() (int, error) {
	if t.closed {
		return 0, NewFileError("trajectory is closed")
	}
	return t.format.NSteps()
}

// Done reports whether the last sequential Read reached the final step.
func (t *Trajectory) Done() bool { return t.done }

// Read reads the next step, applying topology/cell overrides after the
// format populates the frame so the caller sees consistent data
// regardless of what the format itself carries (spec.md §4.3).
func (t *Trajectory) Read() (*Frame, error) {
	if t.closed {
		return nil, NewFileError("trajectory is closed")
	}

	frame := NewFrame()
	if err := t.format.Read(frame); err != nil {
		return nil, err
	}

	if guesser, ok := t.format.(BondGuesser); ok && guesser.GuessBondsAfterRead() {
		if err := GuessTopology(frame); err != nil {
			return nil, err
		}
	}

	if err := t.applyOverrides(frame); err != nil {
		return nil, err
	}

	frame.Step = uint64(t.stepIndex)
	t.stepIndex++

	n, err := t.format.NSteps()
	if err == nil && t.stepIndex >= n {
		t.done = true
	}

	return frame, nil
}

// ReadStep performs a random-access read of step i, setting the engine's
// step cursor to i+1 afterward so a subsequent sequential Read continues
// from the following step.
func (t *Trajectory) ReadStep(i int) (*Frame, error) {
	if t.closed {
		return nil, NewFileError("trajectory is closed")
	}

	n, err := t.format.NSteps()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= n {
		return nil, NewFileError("step %d out of range [0, %d)", i, n)
	}

	frame := NewFrame()
	if err := t.format.ReadStep(i, frame); err != nil {
		return nil, err
	}

	if guesser, ok := t.format.(BondGuesser); ok && guesser.GuessBondsAfterRead() {
		if err := GuessTopology(frame); err != nil {
			return nil, err
		}
	}

	if err := t.applyOverrides(frame); err != nil {
		return nil, err
	}

	frame.Step = uint64(i)
	t.stepIndex = i + 1
	t.done = t.stepIndex >= n

	return frame, nil
}

func (t *Trajectory) applyOverrides(frame *Frame) error {
	if t.topoOverride != nil {
		if t.topoOverride.AtomCount() != frame.Size() {
			return NewConfigurationError(
				"topology override has %d atoms, frame has %d",
				t.topoOverride.AtomCount(), frame.Size())
		}
		frame.Topology = t.topoOverride.Clone()
	}
	if t.cellOverride != nil {
		frame.Cell = *t.cellOverride
	}
	return nil
}

// SetTopology installs a topology override applied to every subsequent
// read. Its atom count must match the frame size at read time, checked
// lazily (the override may be set before the first read establishes a
// size).
func (t *Trajectory) SetTopology(top *Topology) {
	t.topoOverride = top
}

// SetTopologyFrom reads a topology from another file (using the normal
// format-dispatch machinery) and installs it as the override.
func (t *Trajectory) SetTopologyFrom(path string, formatHint string) error {
	traj, err := Open(path, fileio.Read, formatHint, fileio.Auto)
	if err != nil {
		return err
	}
	defer traj.Close()

	frame, err := traj.Read()
	if err != nil {
		return err
	}
	t.topoOverride = frame.Topology
	return nil
}

// SetCell installs a unit cell override applied to every subsequent read.
func (t *Trajectory) SetCell(cell UnitCell) {
	t.cellOverride = &cell
}

// Write appends frame as the next step.
func (t *Trajectory) Write(frame *Frame) error {
	if t.closed {
		return NewFileError("trajectory is closed")
	}
	if !t.info.SupportsWrite && !t.info.SupportsAppend {
		return NewFormatError("format %q does not support writing", t.info.Name)
	}
	return t.format.Write(frame)
}

// Close flushes and releases the underlying file. Subsequent operations
// fail with a FileError.
func (t *Trajectory) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}
