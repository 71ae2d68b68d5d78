package molfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func TestOpenRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traj.dcd")
	if err := os.WriteFile(path, []byte("not a real dcd file"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := chemfiles.Open(path, fileio.Read, "", fileio.Auto)
	if err == nil {
		t.Fatal("expected an error opening an unimplemented format")
	}
	if _, ok := err.(*chemfiles.FormatError); !ok {
		t.Fatalf("expected *chemfiles.FormatError, got %T: %v", err, err)
	}
}
