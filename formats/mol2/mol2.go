// Package mol2 implements the Tripos MOL2 format: @<TRIPOS>MOLECULE,
// @<TRIPOS>ATOM, and @<TRIPOS>BOND sections, one molecule per record.
package mol2

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "MOL2",
		Extension:      ".mol2",
		Description:    "Tripos MOL2 format",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: true,
	}, newFormat)
}

const moleculeTag = "@<TRIPOS>MOLECULE"
const atomTag = "@<TRIPOS>ATOM"
const bondTag = "@<TRIPOS>BOND"

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
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == moleculeTag {
			f.stepPositions = append(f.stepPositions, pos)
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
	if err := f.readOneRecord(frame); err != nil {
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
	if err := f.readOneRecord(frame); err != nil {
		return err
	}
	f.nextRead = i + 1
	return nil
}

func (f *format) readOneRecord(frame *chemfiles.Frame) error {
	tag, err := f.file.ReadLine()
	if err != nil || strings.TrimSpace(tag) != moleculeTag {
		return chemfiles.NewFileError("no more steps")
	}
	name, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "mol2: missing molecule name line")
	}
	countsLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "mol2: missing counts line")
	}
	fields := strings.Fields(countsLine)
	if len(fields) < 2 {
		return chemfiles.NewFormatError("mol2: malformed counts line %q", countsLine)
	}
	nAtoms, err1 := strconv.Atoi(fields[0])
	nBonds, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return chemfiles.NewFormatError("mol2: malformed counts line %q", countsLine)
	}

	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, nAtoms)

	// skip to @<TRIPOS>ATOM
	for {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "mol2: missing %s section", atomTag)
		}
		if strings.TrimSpace(line) == atomTag {
			break
		}
	}

	for i := 0; i < nAtoms; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "mol2: truncated atom section (atom %d/%d)", i, nAtoms)
		}
		af := strings.Fields(line)
		if len(af) < 6 {
			return chemfiles.NewFormatError("mol2: malformed atom line %q", line)
		}
		x, err1 := strconv.ParseFloat(af[2], 64)
		y, err2 := strconv.ParseFloat(af[3], 64)
		z, err3 := strconv.ParseFloat(af[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("mol2: malformed atom coordinates in %q", line)
		}
		positions[i] = chemfiles.NewVector3D(x, y, z)

		atom := chemfiles.NewAtom(af[1])
		atom.Type = sybylElement(af[5])
		top.AddAtom(atom)

		if len(af) >= 7 {
			resID, err := strconv.Atoi(af[6])
			resName := "UNL"
			if len(af) >= 8 {
				resName = af[7]
			}
			if err == nil {
				slot := -1
				for ri, r := range top.Residues() {
					if id, ok := r.ID.Get(); ok && int(id) == resID {
						slot = ri
						break
					}
				}
				if slot == -1 {
					top.AddResidue(chemfiles.NewResidueWithID(resName, uint64(resID)))
					slot = len(top.Residues()) - 1
				}
				top.Residues()[slot].AddAtom(int64(i))
			}
		}
	}

	// skip to @<TRIPOS>BOND
	for {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "mol2: missing %s section", bondTag)
		}
		if strings.TrimSpace(line) == bondTag {
			break
		}
	}

	for i := 0; i < nBonds; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "mol2: truncated bond section (bond %d/%d)", i, nBonds)
		}
		bf := strings.Fields(line)
		if len(bf) < 4 {
			return chemfiles.NewFormatError("mol2: malformed bond line %q", line)
		}
		a, err1 := strconv.Atoi(bf[1])
		b, err2 := strconv.Atoi(bf[2])
		if err1 != nil || err2 != nil {
			return chemfiles.NewFormatError("mol2: malformed bond line %q", line)
		}
		top.AddBond(int64(a-1), int64(b-1), chemfiles.BondOrderFromMOL2(strings.ToLower(bf[3])))
	}

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = chemfiles.NewInfiniteCell()
	frame.SetProperty("name", chemfiles.NewStringProperty(name))
	return nil
}

// sybylElement extracts the element symbol from a SYBYL atom type such as
// "C.3" or "O.2", or returns it unchanged if there is no dot suffix.
func sybylElement(sybylType string) string {
	if i := strings.IndexByte(sybylType, '.'); i >= 0 {
		return sybylType[:i]
	}
	return sybylType
}

func (f *format) GuessBondsAfterRead() bool { return false }

func (f *format) Write(frame *chemfiles.Frame) error {
	name := "MOLECULE"
	if p, ok := frame.Property("name"); ok {
		if s, err := p.AsString(); err == nil && s != "" {
			name = s
		}
	}

	n := frame.Size()
	bonds := frame.Topology.Bonds()

	if err := f.file.WriteString(moleculeTag + "\n"); err != nil {
		return err
	}
	if err := f.file.WriteString(name + "\n"); err != nil {
		return err
	}
	if err := f.file.WriteString(fmt.Sprintf("%5d%6d%6d 0 0\n", n, len(bonds), len(frame.Topology.Residues()))); err != nil {
		return err
	}
	if err := f.file.WriteString("SMALL\nNO_CHARGES\n"); err != nil {
		return err
	}

	if err := f.file.WriteString(atomTag + "\n"); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		resID, resName := 1, "UNL"
		if res, ok := frame.Topology.ResidueForAtom(int64(i)); ok {
			resName = res.Name
			if id, ok := res.ID.Get(); ok {
				resID = int(id)
			}
		}
		line := fmt.Sprintf("%7d %-8s %10.4f %10.4f %10.4f %-5s %5d %-8s %9.4f",
			i+1, atom.Name, pos[0], pos[1], pos[2], atom.EffectiveType(), resID, resName, atom.Charge)
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	if err := f.file.WriteString(bondTag + "\n"); err != nil {
		return err
	}
	for i, bond := range bonds {
		order := chemfiles.MOL2StringFromBondOrder(frame.Topology.BondOrder(bond.A, bond.B))
		line := fmt.Sprintf("%6d%6d%6d %-2s", i+1, bond.A+1, bond.B+1, order)
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return nil
}
