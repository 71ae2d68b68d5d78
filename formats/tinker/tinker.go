// Package tinker implements the Tinker XYZ format: a count/title line
// followed by one line per atom carrying its name, position, a force-field
// type number, and an inline adjacency list of bonded atom indices.
// Unlike plain XYZ, connectivity is explicit and never guessed.
package tinker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "Tinker",
		Extension:      ".txyz",
		Description:    "Tinker XYZ format with inline connectivity",
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
		line, err := f.file.ReadLine()
		if err != nil {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return chemfiles.WrapFormatError(err, "tinker: invalid atom count %q", line)
		}
		f.stepPositions = append(f.stepPositions, pos)
		if _, err := f.file.ReadLines(n); err != nil {
			return chemfiles.WrapFormatError(err, "tinker: truncated step at offset %d", pos)
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

func (f *format) readAtCursor(frame *chemfiles.Frame) error {
	headerLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.NewFileError("no more steps")
	}
	headerFields := strings.Fields(headerLine)
	if len(headerFields) == 0 {
		return chemfiles.NewFormatError("tinker: empty header line")
	}
	n, err := strconv.Atoi(headerFields[0])
	if err != nil {
		return chemfiles.WrapFormatError(err, "tinker: invalid atom count %q", headerLine)
	}
	title := ""
	if len(headerFields) > 1 {
		title = strings.Join(headerFields[1:], " ")
	}

	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, n)
	type pendingBond struct{ i, j int64 }
	var pending []pendingBond

	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "tinker: truncated atom block (atom %d/%d)", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return chemfiles.NewFormatError("tinker: malformed atom line %q", line)
		}
		// index name x y z type-number [neighbor...]
		x, err1 := strconv.ParseFloat(fields[2], 64)
		y, err2 := strconv.ParseFloat(fields[3], 64)
		z, err3 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("tinker: malformed coordinates in %q", line)
		}
		positions[i] = chemfiles.NewVector3D(x, y, z)

		atom := chemfiles.NewAtom(fields[1])
		atom.Type = fields[5]
		top.AddAtom(atom)

		for _, nf := range fields[6:] {
			neighbor, err := strconv.Atoi(nf)
			if err != nil {
				continue
			}
			j := int64(neighbor - 1)
			if j > int64(i) {
				pending = append(pending, pendingBond{int64(i), j})
			}
		}
	}

	for _, pb := range pending {
		top.AddBond(pb.i, pb.j, chemfiles.BondSingle)
	}

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = chemfiles.NewInfiniteCell()
	frame.SetProperty("name", chemfiles.NewStringProperty(title))
	return nil
}

func (f *format) Write(frame *chemfiles.Frame) error {
	n := frame.Size()
	title := ""
	if p, ok := frame.Property("name"); ok {
		if s, err := p.AsString(); err == nil {
			title = s
		}
	}
	header := fmt.Sprintf("%6d", n)
	if title != "" {
		header += "  " + title
	}
	if err := f.file.WriteString(header + "\n"); err != nil {
		return err
	}

	neighbors := make(map[int64][]int64)
	for _, bond := range frame.Topology.Bonds() {
		neighbors[bond.A] = append(neighbors[bond.A], bond.B)
		neighbors[bond.B] = append(neighbors[bond.B], bond.A)
	}

	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		typeNum := atom.Type
		if typeNum == "" {
			typeNum = "0"
		}
		line := fmt.Sprintf("%6d  %-3s%12.6f%12.6f%12.6f%6s", i+1, atom.Name, pos[0], pos[1], pos[2], typeNum)
		for _, j := range neighbors[int64(i)] {
			line += fmt.Sprintf("%6d", j+1)
		}
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
