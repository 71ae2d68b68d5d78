// Package molfile is a placeholder adapter for file extensions this
// library recognizes as molecular formats but does not carry a native
// Go implementation for (e.g. formats VMD's molfile plugins cover). It
// registers so extension dispatch resolves to a clear error instead of
// "unknown format", rather than actually decoding anything.
package molfile

import (
	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	for _, ext := range []string{".molfile", ".dcd", ".psf", ".crd"} {
		chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
			Name:        "molfile/" + ext[1:],
			Extension:   ext,
			Description: "no native backend registered for this format",
		}, newFormat)
	}
}

type format struct {
	path string
}

func newFormat(file *fileio.File, mode fileio.Mode) (chemfiles.Format, error) {
	return &format{path: file.Path()}, nil
}

func (f *format) NSteps() (int, error) {
	return 0, chemfiles.NewFormatError("molfile: no backend registered for %q", f.path)
}

func (f *format) Read(frame *chemfiles.Frame) error {
	return chemfiles.NewFormatError("molfile: no backend registered for %q", f.path)
}

func (f *format) ReadStep(i int, frame *chemfiles.Frame) error {
	return chemfiles.NewFormatError("molfile: no backend registered for %q", f.path)
}

func (f *format) Write(frame *chemfiles.Frame) error {
	return chemfiles.NewFormatError("molfile: no backend registered for %q", f.path)
}
