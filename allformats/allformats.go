// Package allformats registers every format adapter this module ships,
// the way cmd/id3tool wires a backend in by blank-importing its
// package. Importing allformats for its side effects is the easiest way
// to get chemfiles.Open working against any recognized extension
// without naming each backend individually.
package allformats

import (
	_ "github.com/molcore/chemfiles/formats/gro"
	_ "github.com/molcore/chemfiles/formats/lammpsdata"
	_ "github.com/molcore/chemfiles/formats/mol2"
	_ "github.com/molcore/chemfiles/formats/molfile"
	_ "github.com/molcore/chemfiles/formats/netcdf"
	_ "github.com/molcore/chemfiles/formats/pdb"
	_ "github.com/molcore/chemfiles/formats/sdf"
	_ "github.com/molcore/chemfiles/formats/tinker"
	_ "github.com/molcore/chemfiles/formats/tng"
	_ "github.com/molcore/chemfiles/formats/trr"
	_ "github.com/molcore/chemfiles/formats/xtc"
	_ "github.com/molcore/chemfiles/formats/xyz"
)
