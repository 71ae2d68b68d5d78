// Package pdb implements a practical subset of the Protein Data Bank
// format: CRYST1 cell records, ATOM/HETATM coordinate records, CONECT
// bonds, and MODEL/ENDMDL multi-step trajectories.
package pdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "PDB",
		Extension:      ".pdb",
		Description:    "Protein Data Bank format",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: true,
	}, newFormat)
}

type format struct {
	file *fileio.File
	mode fileio.Mode

	stepPositions []int64
	nextRead      int

	// lastStepHadConect records whether the most recently read step
	// carried explicit CONECT records, so GuessBondsAfterRead only
	// fires for steps that actually need it.
	lastStepHadConect bool
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

// buildIndex scans for step boundaries. A file using MODEL/ENDMDL has one
// step per model; a file with none is a single step ending at EOF.
func (f *format) buildIndex() error {
	pos, err := f.file.Tellg()
	if err != nil {
		return err
	}
	sawModel := false
	stepStart := pos

	for {
		if f.file.Eof() {
			break
		}
		linePos, err := f.file.Tellg()
		if err != nil {
			return err
		}
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		keyword := recordKeyword(line)
		switch keyword {
		case "MODEL":
			sawModel = true
			stepStart = linePos
		case "ENDMDL":
			f.stepPositions = append(f.stepPositions, stepStart)
		}
	}
	if !sawModel {
		f.stepPositions = append(f.stepPositions, pos)
	}
	return nil
}

func recordKeyword(line string) string {
	if len(line) < 6 {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line[:6])
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
	if err := f.readOneStep(frame); err != nil {
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
	if err := f.readOneStep(frame); err != nil {
		return err
	}
	f.nextRead = i + 1
	return nil
}

func field(s string, start, end int) string {
	if start >= len(s) {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return strings.TrimSpace(s[start:end])
}

func (f *format) readOneStep(frame *chemfiles.Frame) error {
	top := chemfiles.NewTopology()
	var positions []chemfiles.Vector3D
	cell := chemfiles.NewInfiniteCell()
	residues := make(map[string]int) // "chain/resSeq" -> topology residue slot
	sawConect := false

	for {
		if f.file.Eof() {
			break
		}
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		keyword := recordKeyword(line)

		switch keyword {
		case "CRYST1":
			cell, err = parseCryst1(line)
			if err != nil {
				return err
			}
		case "ATOM", "HETATM":
			name := field(line, 12, 16)
			resName := field(line, 17, 20)
			chainID := field(line, 21, 22)
			resSeq := field(line, 22, 26)

			x, err1 := strconv.ParseFloat(field(line, 30, 38), 64)
			y, err2 := strconv.ParseFloat(field(line, 38, 46), 64)
			z, err3 := strconv.ParseFloat(field(line, 46, 54), 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return chemfiles.NewFormatError("pdb: malformed coordinates in %q", line)
			}

			element := field(line, 76, 78)
			atom := chemfiles.NewAtom(name)
			if element != "" {
				atom.Type = element
			}
			top.AddAtom(atom)
			positions = append(positions, chemfiles.NewVector3D(x, y, z))

			idx := int64(len(positions) - 1)
			key := chainID + "/" + resSeq
			slot, ok := residues[key]
			if !ok {
				resID, _ := strconv.Atoi(resSeq)
				top.AddResidue(chemfiles.NewResidueWithID(resName, uint64(resID)))
				slot = len(top.Residues()) - 1
				residues[key] = slot
			}
			top.Residues()[slot].AddAtom(idx)
		case "CONECT":
			sawConect = true
			fields := strings.Fields(line)
			if len(fields) < 3 {
				continue
			}
			base, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			for _, s := range fields[2:] {
				other, err := strconv.Atoi(s)
				if err != nil {
					continue
				}
				top.AddBond(int64(base-1), int64(other-1), chemfiles.BondUnknown)
			}
		case "ENDMDL", "END":
			goto done
		}
	}
done:

	f.lastStepHadConect = sawConect

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = cell
	return nil
}

func parseCryst1(line string) (chemfiles.UnitCell, error) {
	a, err1 := strconv.ParseFloat(field(line, 6, 15), 64)
	b, err2 := strconv.ParseFloat(field(line, 15, 24), 64)
	c, err3 := strconv.ParseFloat(field(line, 24, 33), 64)
	alpha, err4 := strconv.ParseFloat(field(line, 33, 40), 64)
	beta, err5 := strconv.ParseFloat(field(line, 40, 47), 64)
	gamma, err6 := strconv.ParseFloat(field(line, 47, 54), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return chemfiles.UnitCell{}, chemfiles.NewFormatError("pdb: malformed CRYST1 record %q", line)
	}
	if alpha == 90 && beta == 90 && gamma == 90 {
		return chemfiles.NewOrthorhombicCell(a, b, c), nil
	}
	return chemfiles.NewTriclinicCell(a, b, c, alpha, beta, gamma), nil
}

// GuessBondsAfterRead defers to VdW-distance bond guessing only when the
// step just read carried no explicit CONECT connectivity; a PDB file that
// already describes its bonds should not have spurious distance-guessed
// ones layered on top.
func (f *format) GuessBondsAfterRead() bool { return !f.lastStepHadConect }

func (f *format) Write(frame *chemfiles.Frame) error {
	a, b, c := frame.Cell.Lengths()
	alpha, beta, gamma := frame.Cell.Angles()
	if frame.Cell.Shape() != chemfiles.CellInfinite {
		cryst := fmt.Sprintf("CRYST1%9.3f%9.3f%9.3f%7.2f%7.2f%7.2f P 1           1",
			a, b, c, alpha, beta, gamma)
		if err := f.file.WriteString(cryst + "\n"); err != nil {
			return err
		}
	}

	n := frame.Size()
	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		resName, resID := "RES", 1
		if res, ok := frame.Topology.ResidueForAtom(int64(i)); ok {
			resName = res.Name
			if id, ok := res.ID.Get(); ok {
				resID = int(id)
			}
		}
		line := fmt.Sprintf("ATOM  %5d %-4s %-3s A%4d    %8.3f%8.3f%8.3f  1.00  0.00          %2s",
			(i+1)%100000, atom.Name, resName, resID%10000, pos[0], pos[1], pos[2], atom.EffectiveType())
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	for _, bond := range frame.Topology.Bonds() {
		line := fmt.Sprintf("CONECT%5d%5d", bond.A+1, bond.B+1)
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return f.file.WriteString("END\n")
}
