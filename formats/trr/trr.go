// Package trr implements the GROMACS TRR binary trajectory format: an XDR
// fixed header (magic number, version string, per-block byte sizes) and
// one or more of box/virial/pressure/positions/velocities/forces blocks,
// per step. TRR carries full (uncompressed) precision, unlike XTC.
package trr

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "TRR",
		Extension:      ".trr",
		Description:    "GROMACS TRR binary trajectory format",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: true,
	}, newFormat)
}

const magicNumber int32 = 1993
const versionString = "GMX_trn_file"

type header struct {
	irSize, eSize, boxSize, virSize, presSize int32
	topSize, symSize                          int32
	xSize, vSize, fSize                       int32
	natoms, step, nre                         int32
	t, lambda                                 float64
	doublePrecision                           bool
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

// buildIndex scans the file once, reading each step's header to compute
// the byte size of its data blocks and skipping over them, recording the
// offset of each header.
func (f *format) buildIndex() error {
	for {
		pos, err := tellBinary(f.file)
		if err != nil {
			return err
		}
		h, err := readHeader(f.file)
		if err == io.EOF {
			break
		}
		if err != nil {
			return chemfiles.WrapFormatError(err, "trr: malformed header at offset %d", pos)
		}
		f.stepPositions = append(f.stepPositions, pos)
		if err := skipDataBlocks(f.file, h); err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated data blocks at offset %d", pos)
		}
	}
	return nil
}

// tellBinary wraps fileio.File.Tellg, translated into a TRR-domain error.
func tellBinary(file *fileio.File) (int64, error) {
	pos, err := file.Tellg()
	if err != nil {
		return 0, chemfiles.WrapFormatError(err, "trr: file is not seekable")
	}
	return pos, nil
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

func readXDRString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	padded := (int(n) + 3) / 4 * 4
	buf := make([]byte, padded)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func readHeader(file *fileio.File) (header, error) {
	r := file.Reader()
	var h header

	var magic int32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return h, err
	}
	if magic != magicNumber {
		return h, chemfiles.NewFormatError("trr: bad magic number %d, want %d", magic, magicNumber)
	}
	if _, err := readXDRString(r); err != nil {
		return h, err
	}

	var ints [13]int32
	for i := range ints {
		if err := binary.Read(r, binary.BigEndian, &ints[i]); err != nil {
			return h, err
		}
	}
	h.irSize, h.eSize, h.boxSize, h.virSize, h.presSize = ints[0], ints[1], ints[2], ints[3], ints[4]
	h.topSize, h.symSize = ints[5], ints[6]
	h.xSize, h.vSize, h.fSize = ints[7], ints[8], ints[9]
	h.natoms, h.step, h.nre = ints[10], ints[11], ints[12]

	h.doublePrecision = realSize(h) == 8

	if h.doublePrecision {
		var t, lambda float64
		if err := binary.Read(r, binary.BigEndian, &t); err != nil {
			return h, err
		}
		if err := binary.Read(r, binary.BigEndian, &lambda); err != nil {
			return h, err
		}
		h.t, h.lambda = t, lambda
	} else {
		var t, lambda float32
		if err := binary.Read(r, binary.BigEndian, &t); err != nil {
			return h, err
		}
		if err := binary.Read(r, binary.BigEndian, &lambda); err != nil {
			return h, err
		}
		h.t, h.lambda = float64(t), float64(lambda)
	}

	return h, nil
}

// realSize infers whether this step's reals are float32 or float64 from
// whichever sized block is present, per the GROMACS xdrfile convention.
func realSize(h header) int {
	if h.boxSize > 0 {
		return int(h.boxSize) / 9
	}
	if h.xSize > 0 && h.natoms > 0 {
		return int(h.xSize) / (int(h.natoms) * 3)
	}
	if h.vSize > 0 && h.natoms > 0 {
		return int(h.vSize) / (int(h.natoms) * 3)
	}
	return 4
}

func skipDataBlocks(file *fileio.File, h header) error {
	total := int(h.boxSize + h.virSize + h.presSize + h.xSize + h.vSize + h.fSize)
	if total == 0 {
		return nil
	}
	_, err := file.ReadExact(total)
	return err
}

func readReals(r io.Reader, n int, double bool) ([]float64, error) {
	out := make([]float64, n)
	if double {
		for i := range out {
			var v float64
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			out[i] = v
		}
	} else {
		for i := range out {
			var v float32
			if err := binary.Read(r, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			out[i] = float64(v)
		}
	}
	return out, nil
}

func (f *format) readOneStep(frame *chemfiles.Frame) error {
	h, err := readHeader(f.file)
	if err != nil {
		return chemfiles.NewFileError("no more steps")
	}
	r := f.file.Reader()

	cell := chemfiles.NewInfiniteCell()
	if h.boxSize > 0 {
		vals, err := readReals(r, 9, h.doublePrecision)
		if err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated box block")
		}
		m := chemfiles.Matrix3D{
			{vals[0] * 10, vals[1] * 10, vals[2] * 10},
			{vals[3] * 10, vals[4] * 10, vals[5] * 10},
			{vals[6] * 10, vals[7] * 10, vals[8] * 10},
		}
		cell = chemfiles.NewCellFromMatrix(m)
	}
	if h.virSize > 0 {
		if _, err := readReals(r, 9, h.doublePrecision); err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated virial block")
		}
	}
	if h.presSize > 0 {
		if _, err := readReals(r, 9, h.doublePrecision); err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated pressure block")
		}
	}

	n := int(h.natoms)
	var positions []chemfiles.Vector3D
	if h.xSize > 0 {
		vals, err := readReals(r, n*3, h.doublePrecision)
		if err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated position block")
		}
		positions = toVectors(vals, 10)
	} else {
		positions = make([]chemfiles.Vector3D, n)
	}

	var velocities []chemfiles.Vector3D
	haveVel := false
	if h.vSize > 0 {
		vals, err := readReals(r, n*3, h.doublePrecision)
		if err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated velocity block")
		}
		velocities = toVectors(vals, 10)
		haveVel = true
	}

	if h.fSize > 0 {
		if _, err := readReals(r, n*3, h.doublePrecision); err != nil {
			return chemfiles.WrapFormatError(err, "trr: truncated force block")
		}
	}

	top := chemfiles.NewTopology()
	top.Resize(n)

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = cell
	frame.Step = uint64(h.step)
	if haveVel {
		if err := frame.SetVelocities(velocities); err != nil {
			return err
		}
	}
	return nil
}

func toVectors(vals []float64, scale float64) []chemfiles.Vector3D {
	out := make([]chemfiles.Vector3D, len(vals)/3)
	for i := range out {
		out[i] = chemfiles.NewVector3D(vals[3*i]*scale, vals[3*i+1]*scale, vals[3*i+2]*scale)
	}
	return out
}

func writeXDRString(file *fileio.File, s string) error {
	padded := (len(s) + 3) / 4 * 4
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := file.Write(lenBuf[:]); err != nil {
		return err
	}
	buf := make([]byte, padded)
	copy(buf, s)
	_, err := file.Write(buf)
	return err
}

func writeInt32(file *fileio.File, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := file.Write(buf[:])
	return err
}

func writeFloat32(file *fileio.File, v float32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
	_, err := file.Write(buf[:])
	return err
}

func (f *format) Write(frame *chemfiles.Frame) error {
	n := int32(frame.Size())
	boxSize := int32(9 * 4)
	xSize := n * 3 * 4
	var vSize int32
	velocities, hasVel := frame.Velocities()
	if hasVel {
		vSize = n * 3 * 4
	}

	if err := writeInt32(f.file, magicNumber); err != nil {
		return err
	}
	if err := writeXDRString(f.file, versionString); err != nil {
		return err
	}
	ints := []int32{0, 0, boxSize, 0, 0, 0, 0, xSize, vSize, 0, n, int32(frame.Step), 0}
	for _, v := range ints {
		if err := writeInt32(f.file, v); err != nil {
			return err
		}
	}
	if err := writeFloat32(f.file, 0); err != nil { // t
		return err
	}
	if err := writeFloat32(f.file, 0); err != nil { // lambda
		return err
	}

	m := frame.Cell.Matrix()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if err := writeFloat32(f.file, float32(m[i][j]/10)); err != nil {
				return err
			}
		}
	}

	for i := 0; i < int(n); i++ {
		pos := frame.Positions[i]
		for k := 0; k < 3; k++ {
			if err := writeFloat32(f.file, float32(pos[k]/10)); err != nil {
				return err
			}
		}
	}

	if hasVel {
		for i := 0; i < int(n); i++ {
			v := velocities[i]
			for k := 0; k < 3; k++ {
				if err := writeFloat32(f.file, float32(v[k]/10)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
