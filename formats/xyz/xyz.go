// Package xyz implements the plain XYZ trajectory format: a decimal atom
// count, a free-text comment line, then one "NAME X Y Z [VX VY VZ]" line
// per atom, in angstroms.
package xyz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "XYZ",
		Extension:      ".xyz",
		Description:    "XYZ trajectory format",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: true,
	}, newFormat)
}

type format struct {
	file *fileio.File
	mode fileio.Mode

	stepPositions []int64
	indexed       bool
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

// buildIndex performs the linear forward scan spec.md §4.2 mandates for
// text formats with variable-length steps: record the byte offset of
// each step's first line, then skip over it.
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
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return chemfiles.WrapFormatError(err, "xyz: invalid atom count %q", line)
		}
		f.stepPositions = append(f.stepPositions, pos)
		// comment line + n atom lines
		if _, err := f.file.ReadLines(n + 1); err != nil {
			return chemfiles.WrapFormatError(err, "xyz: truncated step at offset %d", pos)
		}
	}
	f.indexed = true
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
	countLine, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.NewFileError("no more steps")
	}
	n, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil {
		return chemfiles.WrapFormatError(err, "xyz: invalid atom count %q", countLine)
	}

	comment, err := f.file.ReadLine()
	if err != nil {
		return chemfiles.WrapFormatError(err, "xyz: missing comment line")
	}

	top := chemfiles.NewTopology()
	positions := make([]chemfiles.Vector3D, n)
	var velocities []chemfiles.Vector3D

	for i := 0; i < n; i++ {
		line, err := f.file.ReadLine()
		if err != nil {
			return chemfiles.WrapFormatError(err, "xyz: truncated atom block (atom %d/%d)", i, n)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return chemfiles.NewFormatError("xyz: malformed atom line %q", line)
		}
		top.AddAtom(chemfiles.NewAtom(fields[0]))

		x, err1 := strconv.ParseFloat(fields[1], 64)
		y, err2 := strconv.ParseFloat(fields[2], 64)
		z, err3 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return chemfiles.NewFormatError("xyz: malformed coordinates in %q", line)
		}
		positions[i] = chemfiles.NewVector3D(x, y, z)

		if len(fields) >= 7 {
			if velocities == nil {
				velocities = make([]chemfiles.Vector3D, n)
			}
			vx, e1 := strconv.ParseFloat(fields[4], 64)
			vy, e2 := strconv.ParseFloat(fields[5], 64)
			vz, e3 := strconv.ParseFloat(fields[6], 64)
			if e1 != nil || e2 != nil || e3 != nil {
				return chemfiles.NewFormatError("xyz: malformed velocity in %q", line)
			}
			velocities[i] = chemfiles.NewVector3D(vx, vy, vz)
		}
	}

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = chemfiles.NewInfiniteCell()
	frame.SetProperty("name", chemfiles.NewStringProperty(comment))
	if velocities != nil {
		if err := frame.SetVelocities(velocities); err != nil {
			return err
		}
	}
	return nil
}

func (f *format) GuessBondsAfterRead() bool { return true }

func (f *format) Write(frame *chemfiles.Frame) error {
	n := frame.Size()
	if err := f.file.WriteString(fmt.Sprintf("%d\n", n)); err != nil {
		return err
	}

	comment := ""
	if p, ok := frame.Property("name"); ok {
		if s, err := p.AsString(); err == nil {
			comment = s
		}
	}
	if err := f.file.WriteString(comment + "\n"); err != nil {
		return err
	}

	velocities, hasVel := frame.Velocities()
	for i := 0; i < n; i++ {
		atom := frame.Topology.Atom(i)
		pos := frame.Positions[i]
		line := fmt.Sprintf("%-8s %14.8f %14.8f %14.8f", atom.Name, pos[0], pos[1], pos[2])
		if hasVel {
			v := velocities[i]
			line += fmt.Sprintf(" %14.8f %14.8f %14.8f", v[0], v[1], v[2])
		}
		if err := f.file.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}
