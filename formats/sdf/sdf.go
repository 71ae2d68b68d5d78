// Package sdf implements the CTFile V2000 molfile format: a three-line
// header block, a counts line, an atom block, and a bond block, each
// record terminated by "$$$$" when multiple molecules share a file.
package sdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "SDF",
		Extension:      ".sdf",
		Description:    "CTFile V2000 molfile format",
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
		if err := f.skipOneRecord(); err != nil {
			return chemfiles.WrapFormatError(err, "sdf: truncated record at offset %d", pos)
		}
		f.stepPositions = append(f.stepPositions, pos)
	}
	return nil
}

// skipOneRecord reads past header+counts+atoms+bonds+properties/"$$$$" for
// one molecule record, without materializing it.
func (f *format) skipOneRecord() error {
	if _, err := f.file.ReadLines(3); err != nil {
		return err
	}
	counts, err := f.file.ReadLine()
	if err != nil {
		return err
	}
	nAtoms, nBonds, err := parseCountsLine(counts)
	if err != nil {
		return err
	}
	if _, err := f.file.ReadLines(nAtoms + nBonds); err != nil {
		return err
	}
	for {
		line, err := f.file.ReadLine()
		if err != nil {
			return nil // tolerate a missing trailing "$$$$" at EOF
		}
		if strings.TrimSpace(line) == "$$$$" {
			return nil
		}
		if strings.HasPrefix(line, "M  END") {
			// skip any data-item block up to the next "$$$$"
			for {
				l2, err := f.file.ReadLine()
				if err != nil {
					return nil
				}
				if strings.TrimSpace(l2) == "$$$$" {
					return nil
				}
			}
		}
	}
}

func parseCountsLine(line string) (int, int, error) {
	if len(line) < 6 {
		return 0, 0, chemfiles.NewFormatError("sdf: malformed counts line %q", line)
	}
	nAtoms, err1 := strconv.Atoi(strings.TrimSpace(line[0:3]))
	nBonds, err2 := strconv.Atoi(strings.TrimSpace(line[3:6]))
	if err1 != nil || err2 != nil {
		return 0, 0, chemfiles.NewFormatError("sdf: malformed counts line %q", line)
	}
	return nAtoms, nBonds, nil
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
	header, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.NewFileError("no more steps")
	}
	if _, err := f.file.ReadLines(2); err != nil {
		return chemfiles.WrapFormatError(err, "sdf: truncated header block")
	}
	countsLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "sdf: missing counts line")
	}
	nAtoms, nBonds, err := parseCountsLine(countsLine)
	if err != nil {
		return err
	}

	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, nAtoms)

	for i := 0; i < nAtoms; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "sdf: truncated atom block (atom %d/%d)", i, nAtoms)
		}
		if len(line) < 34 {
			return chemfiles.NewFormatError("sdf: malformed atom line %q", line)
		}
		x, err1 := strconv.ParseFloat(strings.TrimSpace(line[0:10]), 64)
		y, err2 := strconv.ParseFloat(strings.TrimSpace(line[10:20]), 64)
		z, err3 := strconv.ParseFloat(strings.TrimSpace(line[20:30]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("sdf: malformed atom coordinates in %q", line)
		}
		symbol := strings.TrimSpace(line[31:34])
		positions[i] = chemfiles.NewVector3D(x, y, z)
		top.AddAtom(chemfiles.NewAtom(symbol))
	}

	for i := 0; i < nBonds; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "sdf: truncated bond block (bond %d/%d)", i, nBonds)
		}
		if len(line) < 9 {
			return chemfiles.NewFormatError("sdf: malformed bond line %q", line)
		}
		a, err1 := strconv.Atoi(strings.TrimSpace(line[0:3]))
		b, err2 := strconv.Atoi(strings.TrimSpace(line[3:6]))
		code, err3 := strconv.Atoi(strings.TrimSpace(line[6:9]))
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("sdf: malformed bond line %q", line)
		}
		top.AddBond(int64(a-1), int64(b-1), chemfiles.BondOrderFromSDFCode(code))
	}

	// consume up to and including the terminating "$$$$", if present.
	for {
		if f.file.Eof() {
			break
		}
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "$$$$" {
			break
		}
	}

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = chemfiles.NewInfiniteCell()
	frame.SetProperty("name", chemfiles.NewStringProperty(header))
	return nil
}

func (f *format) Write(frame *chemfiles.Frame) error {
	name := ""
	if p, ok := frame.Property("name"); ok {
		if s, err := p.AsString(); err == nil {
			name = s
		}
	}
	if err := f.file.WriteString(name + "\n"); err != nil {
		return err
	}
	if err := f.file.WriteString("  molcore/chemfiles\n\n"); err != nil {
		return err
	}

	n := frame.Size()
	bonds := frame.Topology.Bonds()
	if err := f.file.WriteString(fmt.Sprintf("%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", n, len(bonds))); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		line := fmt.Sprintf("%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0",
			pos[0], pos[1], pos[2], atom.EffectiveType())
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	for _, bond := range bonds {
		code := chemfiles.SDFCodeFromBondOrder(frame.Topology.BondOrder(bond.A, bond.B))
		line := fmt.Sprintf("%3d%3d%3d  0  0  0  0", bond.A+1, bond.B+1, code)
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	if err := f.file.WriteString("M  END\n"); err != nil {
		return err
	}
	return f.file.WriteString("$$$$\n")
}
