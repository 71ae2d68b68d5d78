// Package lammpsdata implements a practical subset of the LAMMPS data file
// format: the header counts block and the Atoms/Velocities/Bonds named
// sections, for the "full", "atomic", and "molecular" atom styles.
package lammpsdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:          "LAMMPS Data",
		Extension:     ".data",
		Description:   "LAMMPS data file format",
		SupportsRead:  true,
		SupportsWrite: true,
	}, newFormat)
}

// AtomStyle selects which per-atom columns the Atoms section carries.
type AtomStyle int

const (
	StyleFull AtomStyle = iota
	StyleAtomic
	StyleMolecular
)

// detectAtomStyle reads the style off the "Atoms # <style>" header comment
// LAMMPS data files conventionally carry, defaulting to "full" when no
// comment is present.
func detectAtomStyle(header string) AtomStyle {
	idx := strings.Index(header, "#")
	if idx < 0 {
		return StyleFull
	}
	switch strings.ToLower(strings.TrimSpace(header[idx+1:])) {
	case "atomic":
		return StyleAtomic
	case "molecular":
		return StyleMolecular
	default:
		return StyleFull
	}
}

type format struct {
	file  *fileio.File
	mode  fileio.Mode
	style AtomStyle
	read  bool
}

func newFormat(file *fileio.File, mode fileio.Mode) (chemfiles.Format, error) {
	return &format{file: file, mode: mode, style: StyleFull}, nil
}

// LAMMPS data files hold exactly one structural snapshot: there is no
// concept of multiple steps in the format itself.
func (f *format) NSteps() (int, error) {
	if f.mode != fileio.Read {
		return 0, nil
	}
	return 1, nil
}

func (f *format) ReadStep(i int, frame *chemfiles.Frame) error {
	if i != 0 {
		return chemfiles.NewFileError("step %d out of range", i)
	}
	return f.Read(frame)
}

func (f *format) Read(frame *chemfiles.Frame) error {
	if f.read {
		return chemfiles.NewFileError("no more steps")
	}
	f.read = true

	if _, err := f.file.ReadLine(); err != nil { // comment line
		return chemfiles.WrapFormatError(err, "lammpsdata: missing comment line")
	}

	var nAtoms, nBonds int
	var cell chemfiles.UnitCell
	var xlo, xhi, ylo, yhi, zlo, zhi float64
	haveBounds := [3]bool{}

	for {
		if f.file.Eof() {
			break
		}
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)

		switch {
		case strings.Contains(trimmed, "atoms") && len(fields) == 2:
			nAtoms, _ = strconv.Atoi(fields[0])
		case strings.Contains(trimmed, "bonds") && len(fields) == 2:
			nBonds, _ = strconv.Atoi(fields[0])
		case strings.HasSuffix(trimmed, "xlo xhi"):
			xlo, _ = strconv.ParseFloat(fields[0], 64)
			xhi, _ = strconv.ParseFloat(fields[1], 64)
			haveBounds[0] = true
		case strings.HasSuffix(trimmed, "ylo yhi"):
			ylo, _ = strconv.ParseFloat(fields[0], 64)
			yhi, _ = strconv.ParseFloat(fields[1], 64)
			haveBounds[1] = true
		case strings.HasSuffix(trimmed, "zlo zhi"):
			zlo, _ = strconv.ParseFloat(fields[0], 64)
			zhi, _ = strconv.ParseFloat(fields[1], 64)
			haveBounds[2] = true
		case trimmed == "Atoms" || strings.HasPrefix(trimmed, "Atoms "):
			f.style = detectAtomStyle(trimmed)
			if _, err := f.file.ReadLine(); err != nil { // blank separator
				return chemfiles.WrapFormatError(err, "lammpsdata: truncated Atoms section")
			}
			top, positions, err := f.readAtomsSection(nAtoms)
			if err != nil {
				return err
			}
			frame.Topology = top
			frame.Positions = positions
		case trimmed == "Velocities":
			if _, err := f.file.ReadLine(); err != nil {
				return chemfiles.WrapFormatError(err, "lammpsdata: truncated Velocities section")
			}
			velocities, err := f.readVelocitiesSection(nAtoms)
			if err != nil {
				return err
			}
			if err := frame.SetVelocities(velocities); err != nil {
				return err
			}
		case trimmed == "Bonds":
			if _, err := f.file.ReadLine(); err != nil {
				return chemfiles.WrapFormatError(err, "lammpsdata: truncated Bonds section")
			}
			if err := f.readBondsSection(frame.Topology, nBonds); err != nil {
				return err
			}
		}
	}

	if haveBounds[0] && haveBounds[1] && haveBounds[2] {
		cell = chemfiles.NewOrthorhombicCell(xhi-xlo, yhi-ylo, zhi-zlo)
	} else {
		cell = chemfiles.NewInfiniteCell()
	}
	frame.Cell = cell
	return nil
}

func (f *format) readAtomsSection(n int) (*chemfiles.Topology, []chemfiles.Vector3D, error) {
	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, n)
	order := make([]int, n) // LAMMPS atom-id -> storage slot, 1-based ids

	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return nil, nil, chemfiles.WrapFormatError(err, "lammpsdata: truncated Atoms section (atom %d/%d)", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, nil, chemfiles.NewFormatError("lammpsdata: malformed Atoms line %q", line)
		}
		id, _ := strconv.Atoi(fields[0])
		slot := id - 1
		if slot < 0 || slot >= n {
			slot = i
		}
		order[i] = slot

		var typeField string
		var x, y, z float64
		switch f.style {
		case StyleFull:
			// id molecule-id atom-type q x y z
			typeField = fields[2]
			x, _ = strconv.ParseFloat(fields[4], 64)
			y, _ = strconv.ParseFloat(fields[5], 64)
			z, _ = strconv.ParseFloat(fields[6], 64)
		case StyleMolecular:
			// id molecule-id atom-type x y z
			typeField = fields[2]
			x, _ = strconv.ParseFloat(fields[3], 64)
			y, _ = strconv.ParseFloat(fields[4], 64)
			z, _ = strconv.ParseFloat(fields[5], 64)
		default: // StyleAtomic: id atom-type x y z
			typeField = fields[1]
			x, _ = strconv.ParseFloat(fields[2], 64)
			y, _ = strconv.ParseFloat(fields[3], 64)
			z, _ = strconv.ParseFloat(fields[4], 64)
		}

		atom := chemfiles.NewAtom("type" + typeField)
		atom.Type = typeField
		top.AddAtom(atom)
		positions[slot] = chemfiles.NewVector3D(x, y, z)
	}
	return top, positions, nil
}

func (f *format) readVelocitiesSection(n int) ([]chemfiles.Vector3D, error) {
	velocities := make([]chemfiles.Vector3D, n)
	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return nil, chemfiles.WrapFormatError(err, "lammpsdata: truncated Velocities section (atom %d/%d)", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, chemfiles.NewFormatError("lammpsdata: malformed Velocities line %q", line)
		}
		id, _ := strconv.Atoi(fields[0])
		slot := id - 1
		if slot < 0 || slot >= n {
			slot = i
		}
		vx, _ := strconv.ParseFloat(fields[1], 64)
		vy, _ := strconv.ParseFloat(fields[2], 64)
		vz, _ := strconv.ParseFloat(fields[3], 64)
		velocities[slot] = chemfiles.NewVector3D(vx, vy, vz)
	}
	return velocities, nil
}

func (f *format) readBondsSection(top *chemfiles.Topology, n int) error {
	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "lammpsdata: truncated Bonds section (bond %d/%d)", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return chemfiles.NewFormatError("lammpsdata: malformed Bonds line %q", line)
		}
		a, _ := strconv.Atoi(fields[2])
		b, _ := strconv.Atoi(fields[3])
		top.AddBond(int64(a-1), int64(b-1), chemfiles.BondSingle)
	}
	return nil
}

func (f *format) Write(frame *chemfiles.Frame) error {
	n := frame.Size()
	bonds := frame.Topology.Bonds()

	if err := f.file.WriteString("LAMMPS data file written by molcore/chemfiles\n\n"); err != nil {
		return err
	}
	if err := f.file.WriteString(fmt.Sprintf("%d atoms\n", n)); err != nil {
		return err
	}
	if len(bonds) > 0 {
		if err := f.file.WriteString(fmt.Sprintf("%d bonds\n", len(bonds))); err != nil {
			return err
		}
	}

	types := make(map[string]int)
	for i := 0; i < n; i++ {
		t := frame.Topology.Atom(i).EffectiveType()
		if _, ok := types[t]; !ok {
			types[t] = len(types) + 1
		}
	}
	if err := f.file.WriteString(fmt.Sprintf("%d atom types\n\n", len(types))); err != nil {
		return err
	}

	a, b, c := frame.Cell.Lengths()
	if frame.Cell.Shape() == chemfiles.CellInfinite {
		a, b, c = 1000, 1000, 1000
	}
	if err := f.file.WriteString(fmt.Sprintf("%.6f %.6f xlo xhi\n", 0.0, a)); err != nil {
		return err
	}
	if err := f.file.WriteString(fmt.Sprintf("%.6f %.6f ylo yhi\n", 0.0, b)); err != nil {
		return err
	}
	if err := f.file.WriteString(fmt.Sprintf("%.6f %.6f zlo zhi\n\n", 0.0, c)); err != nil {
		return err
	}

	if err := f.file.WriteString("Atoms # full\n\n"); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		molID := 1
		if res, ok := frame.Topology.ResidueForAtom(int64(i)); ok {
			if id, ok := res.ID.Get(); ok {
				molID = int(id)
			}
		}
		line := fmt.Sprintf("%d %d %d %.6f %.6f %.6f %.6f", i+1, molID, types[atom.EffectiveType()], atom.Charge, pos[0], pos[1], pos[2])
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	if velocities, ok := frame.Velocities(); ok {
		if err := f.file.WriteString("\nVelocities\n\n"); err != nil {
			return err
		}
		for i, v := range velocities {
			line := fmt.Sprintf("%d %.6f %.6f %.6f", i+1, v[0], v[1], v[2])
			if err := f.file.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}

	if len(bonds) > 0 {
		if err := f.file.WriteString("\nBonds\n\n"); err != nil {
			return err
		}
		for i, bond := range bonds {
			line := fmt.Sprintf("%d 1 %d %d", i+1, bond.A+1, bond.B+1)
			if err := f.file.WriteString(line + "\n"); err != nil {
				return err
			}
		}
	}

	return nil
}
