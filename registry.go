package chemfiles

import (
	"strings"

	"github.com/molcore/chemfiles/fileio"
)

// Format is the contract every format adapter must satisfy, per spec.md
// §4.2. Implementations are produced by a registered Factory bound to an
// already-open fileio.File.
type Format interface {
	// NSteps returns the number of steps in the trajectory, indexing the
	// file on first call if needed.
	NSteps() (int, error)
	// Read reads the next step into frame, in place. It clears any
	// pre-existing velocities/topology/cell not dictated by the format.
	// On EOF it returns a FileError.
	Read(frame *Frame) error
	// ReadStep performs a random-access read of step i into frame.
	ReadStep(i int, frame *Frame) error
	// Write appends one step. Formats that cannot write return a
	// FormatError.
	Write(frame *Frame) error
}

// BondGuesser is implemented by formats that don't carry connectivity and
// want GuessTopology applied automatically after each read.
type BondGuesser interface {
	GuessBondsAfterRead() bool
}

// FactoryFunc constructs a Format bound to an open file, for the given
// mode.
type FactoryFunc func(file *fileio.File, mode fileio.Mode) (Format, error)

// FactoryInfo is the static metadata describing a registered format.
type FactoryInfo struct {
	Name            string
	Extension       string // may be empty if the format has none
	Description     string
	SupportsRead    bool
	SupportsWrite   bool
	SupportsAppend  bool
}

type registeredFormat struct {
	info    FactoryInfo
	factory FactoryFunc
}

var (
	formatsByName = make(map[string]registeredFormat)
	formatsByExt  = make(map[string]registeredFormat)
)

// RegisterFormat registers a format adapter under its name and, if given,
// its extension. Re-registering an already-used name or extension fails
// with a FormatError: registration is idempotent per key, per spec.md
// §4.2 (the teacher's sound.RegisterFormat has no such check; SPEC_FULL.md
// §4.2 adds it deliberately).
func RegisterFormat(info FactoryInfo, factory FactoryFunc) error {
	if _, exists := formatsByName[info.Name]; exists {
		return NewFormatError("format %q is already registered", info.Name)
	}
	if info.Extension != "" {
		if _, exists := formatsByExt[info.Extension]; exists {
			return NewFormatError("extension %q is already registered", info.Extension)
		}
	}

	rf := registeredFormat{info: info, factory: factory}
	formatsByName[info.Name] = rf
	if info.Extension != "" {
		formatsByExt[info.Extension] = rf
	}
	return nil
}

// MustRegisterFormat is RegisterFormat, panicking on error. Format
// adapters call this from init(), mirroring the teacher's
// sound.RegisterFormat calls in each subpackage's init().
func MustRegisterFormat(info FactoryInfo, factory FactoryFunc) {
	if err := RegisterFormat(info, factory); err != nil {
		panic(err)
	}
}

// lookupByName returns the registered format for an explicit name.
func lookupByName(name string) (registeredFormat, bool) {
	rf, ok := formatsByName[name]
	return rf, ok
}

// lookupByExtension finds the format registered for the longest
// extension suffix matching path (after stripping any compression
// suffix), per spec.md §4.2's dispatch rule.
func lookupByExtension(path string) (registeredFormat, bool) {
	path = fileio.StripCompressionSuffix(path)
	best := ""
	var bestRF registeredFormat
	found := false
	for ext, rf := range formatsByExt {
		if strings.HasSuffix(path, ext) && len(ext) > len(best) {
			best = ext
			bestRF = rf
			found = true
		}
	}
	return bestRF, found
}

// dispatch resolves a (path, formatHint) pair to a registered format,
// per spec.md §4.2's two-step rule: an explicit hint wins, otherwise the
// longest matching extension suffix is used.
func dispatch(path string, formatHint string) (registeredFormat, error) {
	if formatHint != "" {
		rf, ok := lookupByName(formatHint)
		if !ok {
			return registeredFormat{}, NewFormatError("unknown format name %q", formatHint)
		}
		return rf, nil
	}
	rf, ok := lookupByExtension(path)
	if !ok {
		return registeredFormat{}, NewFormatError("cannot find a format for extension of %q", path)
	}
	return rf, nil
}
