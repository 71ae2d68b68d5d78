// Package gro implements the GROMACS GRO format: a title line, an atom
// count, fixed-column atom records in nanometers, and a box vectors line.
// Positions and velocities are converted to/from angstroms on the wire.
package gro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "GRO",
		Extension:      ".gro",
		Description:    "GROMACS GRO format",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: true,
	}, newFormat)
}

// nmToAngstrom converts GRO's native nanometers to this library's angstrom
// convention.
const nmToAngstrom = 10.0

type format struct {
	file *fileio.File
	mode fileio.Mode

	stepPositions []int64
	nextRead      int
}

func newFormat(file *fileio.File, mode fileio.Mode) (chemfiles.Format, error) {
	f := &format{file: file, mode: mode}
	if mode == fileio.Read {
		if err := f.buildIndex(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *format) buildIndex() error {
	for {
		if f.file.Eof() {
			break
		}
		pos, err := f.file.Tellg()
		if err != nil {
			return err
		}
		if _, err := f.file.ReadLine(); err != nil {
			break
		}
		countLine, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "gro: truncated step at offset %d", pos)
		}
		n, err := strconv.Atoi(strings.TrimSpace(countLine))
		if err != nil {
			return chemfiles.WrapFormatError(err, "gro: invalid atom count %q", countLine)
		}
		f.stepPositions = append(f.stepPositions, pos)
		if _, err := f.file.ReadLines(n + 1); err != nil {
			return chemfiles.WrapFormatError(err, "gro: truncated step at offset %d", pos)
		}
	}
	return nil
}

func (f *format) NSteps() (int, error) {
	return len(f.stepPositions), nil
}

func (f *format) Read(frame *chemfiles.Frame) error {
	if f.nextRead >= len(f.stepPositions) {
		return chemfiles.NewFileError("no more steps")
	}
	if err := f.file.Seekg(f.stepPositions[f.nextRead]); err != nil {
		return err
	}
	if err := f.readAtCursor(frame); err != nil {
		return err
	}
	f.nextRead++
	return nil
}

func (f *format) ReadStep(i int, frame *chemfiles.Frame) error {
	if i < 0 || i >= len(f.stepPositions) {
		return chemfiles.NewFileError("step %d out of range", i)
	}
	if err := f.file.Seekg(f.stepPositions[i]); err != nil {
		return err
	}
	if err := f.readAtCursor(frame); err != nil {
		return err
	}
	f.nextRead = i + 1
	return nil
}

// fixedField slices s into the GROMACS fixed-width column convention,
// tolerating a short trailing line (missing velocities) the way GROMACS
// itself writes GRO files without velocities.
func fixedField(s string, start, length int) string {
	if start >= len(s) {
		return ""
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return strings.TrimSpace(s[start:end])
}

func (f *format) readAtCursor(frame *chemfiles.Frame) error {
	title, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.NewFileError("no more steps")
	}
	countLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "gro: missing atom count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil {
		return chemfiles.WrapFormatError(err, "gro: invalid atom count %q", countLine)
	}

	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, n)
	var velocities []chemfiles.Vector3D
	haveVel := false
	residueIndex := make(map[int]int) // GRO residue number -> topology residue slot

	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "gro: truncated atom block (atom %d/%d)", i, n)
		}
		resName := fixedField(line, 5, 5)
		atomName := fixedField(line, 10, 5)

		atom := chemfiles.NewAtom(atomName)
		top.AddAtom(atom)

		if resID, err := strconv.Atoi(fixedField(line, 0, 5)); err == nil {
			slot, ok := residueIndex[resID]
			if !ok {
				top.AddResidue(chemfiles.NewResidueWithID(resName, uint64(resID)))
				slot = len(top.Residues()) - 1
				residueIndex[resID] = slot
			}
			top.Residues()[slot].AddAtom(int64(i))
		}

		x, err1 := strconv.ParseFloat(fixedField(line, 20, 8), 64)
		y, err2 := strconv.ParseFloat(fixedField(line, 28, 8), 64)
		z, err3 := strconv.ParseFloat(fixedField(line, 36, 8), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("gro: malformed coordinates in %q", line)
		}
		positions[i] = chemfiles.NewVector3D(x*nmToAngstrom, y*nmToAngstrom, z*nmToAngstrom)

		if len(strings.TrimSpace(fixedField(line, 44, 8))) > 0 {
			if velocities == nil {
				velocities = make([]chemfiles.Vector3D, n)
			}
			vx, e1 := strconv.ParseFloat(fixedField(line, 44, 8), 64)
			vy, e2 := strconv.ParseFloat(fixedField(line, 52, 8), 64)
			vz, e3 := strconv.ParseFloat(fixedField(line, 60, 8), 64)
			if e1 == nil && e2 == nil && e3 == nil {
				velocities[i] = chemfiles.NewVector3D(vx*nmToAngstrom, vy*nmToAngstrom, vz*nmToAngstrom)
				haveVel = true
			}
		}
	}

	boxLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "gro: missing box line")
	}
	cell, err := parseBoxLine(boxLine)
	if err != nil {
		return err
	}

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = cell
	frame.SetProperty("name", chemfiles.NewStringProperty(title))
	if haveVel {
		if err := frame.SetVelocities(velocities); err != nil {
			return err
		}
	}
	return nil
}

func parseBoxLine(line string) (chemfiles.UnitCell, error) {
	fields := strings.Fields(line)
	vals := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return chemfiles.UnitCell{}, chemfiles.NewFormatError("gro: malformed box line %q", line)
		}
		vals[i] = v * nmToAngstrom
	}
	switch len(vals) {
	case 3:
		return chemfiles.NewOrthorhombicCell(vals[0], vals[1], vals[2]), nil
	case 9:
		m := chemfiles.Matrix3D{
			{vals[0], vals[5], vals[7]},
			{vals[3], vals[1], vals[8]},
			{vals[4], vals[6], vals[2]},
		}
		return chemfiles.NewCellFromMatrix(m), nil
	default:
		return chemfiles.UnitCell{}, chemfiles.NewFormatError("gro: box line must have 3 or 9 fields, got %d", len(vals))
	}
}

func (f *format) GuessBondsAfterRead() bool { return true }

// indexField5 renders a 1-based index into GRO's 5-character column,
// overflowing to the literal sentinel "*****" past 99999 per spec.md §5's
// GRO overflow rule rather than silently wrapping into a valid-looking
// but wrong index.
func indexField5(n int) string {
	if n > 99999 {
		return "*****"
	}
	return fmt.Sprintf("%5d", n)
}

func (f *format) Write(frame *chemfiles.Frame) error {
	n := frame.Size()
	if n > 99999 {
		chemfiles.Warnf("gro: %d atoms exceeds the 5-digit field width, writing * index fields", n)
	}

	title := ""
	if p, ok := frame.Property("name"); ok {
		if s, err := p.AsString(); err == nil {
			title = s
		}
	}
	if err := f.file.WriteString(title + "\n"); err != nil {
		return err
	}
	if err := f.file.WriteString(fmt.Sprintf("%5d\n", n)); err != nil {
		return err
	}

	velocities, hasVel := frame.Velocities()
	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		resID, resName := 1, "RES"
		if res, ok := frame.Topology.ResidueForAtom(int64(i)); ok {
			resName = res.Name
			if id, ok := res.ID.Get(); ok {
				resID = int(id)
			}
		}
		pos := frame.Positions[i]
		line := fmt.Sprintf("%s%-5s%5s%s%8.3f%8.3f%8.3f",
			indexField5(resID), resName, atom.Name, indexField5(i+1),
			pos[0]/nmToAngstrom, pos[1]/nmToAngstrom, pos[2]/nmToAngstrom)
		if hasVel {
			v := velocities[i]
			line += fmt.Sprintf("%8.4f%8.4f%8.4f", v[0]/nmToAngstrom, v[1]/nmToAngstrom, v[2]/nmToAngstrom)
		}
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	a, b, c := frame.Cell.Lengths()
	boxLine := fmt.Sprintf("%10.5f%10.5f%10.5f", a/nmToAngstrom, b/nmToAngstrom, c/nmToAngstrom)
	return f.file.WriteString(boxLine + "\n")
}
