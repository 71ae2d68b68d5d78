// Package netcdf implements the classic-format (CDF-1/CDF-2) subset of
// the Amber NetCDF molecular trajectory convention: a "frame" record
// dimension, "spatial"/"cell_spatial"/"cell_angular" label dimensions,
// and time/coordinates/velocities/cell_lengths/cell_angles variables.
//
// Files this package writes declare the record count via the classic
// format's "streaming" sentinel (all-ones numrecs) rather than rewriting
// a fixed header field after every step, since fileio.File is an
// append-only write handle with no mid-stream seek. On read, this package
// recovers the record count of such a file by reading whole records
// forward until the data runs out, so files round-trip through this
// library whether or not numrecs was patched in afterward by some other
// tool.
package netcdf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/molcore/chemfiles"
	"github.com/molcore/chemfiles/fileio"
)

func init() {
	chemfiles.MustRegisterFormat(chemfiles.FactoryInfo{
		Name:           "Amber NetCDF",
		Extension:      ".nc",
		Description:    "Amber classic-format NetCDF trajectory",
		SupportsRead:   true,
		SupportsWrite:  true,
		SupportsAppend: false,
	}, newFormat)
}

const (
	ncByte   = 1
	ncChar   = 2
	ncShort  = 3
	ncInt    = 4
	ncFloat  = 5
	ncDouble = 6
)

const (
	tagAbsent    = 0
	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C
)

const streamingNumrecs = -1 // all-ones int32, the classic "unknown record count" sentinel

const nmToAngstrom = 10.0

func nctypeSize(t int32) int {
	switch t {
	case ncByte, ncChar:
		return 1
	case ncShort:
		return 2
	case ncInt, ncFloat:
		return 4
	case ncDouble:
		return 8
	default:
		return 1
	}
}

func pad4(n int) int { return (n + 3) / 4 * 4 }

type dimension struct {
	name   string
	length int32 // 0 marks the record (unlimited) dimension
}

type variable struct {
	name   string
	dimids []int32
	nctype int32
	vsize  int32
	begin  int64
}

func (v variable) isRecord(dims []dimension) bool {
	return len(v.dimids) > 0 && dims[v.dimids[0]].length == 0
}

type format struct {
	file *fileio.File
	mode fileio.Mode

	// shared shape, fixed for the lifetime of the file
	natoms        int
	hasVelocities bool
	hasCell       bool

	// write side
	headerWritten bool
	recSize       int

	// read side
	dims          []dimension
	vars          map[string]variable
	recSizeRead   int
	dataStart     int64
	stepPositions []int64
	nextRead      int
}

func newFormat(file *fileio.File, mode fileio.Mode) (chemfiles.Format, error) {
	f := &format{file: file, mode: mode, vars: make(map[string]variable)}
	if mode == fileio.Read {
		if err := f.readHeaderAndIndex(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// --- header parsing (read side) ---

func readName(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, pad4(int(n)))
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (f *format) readHeaderAndIndex() error {
	r := f.file.Reader()

	magic := make([]byte, 3)
	if _, err := io.ReadFull(r, magic); err != nil {
		return chemfiles.WrapFormatError(err, "netcdf: truncated magic")
	}
	if string(magic) != "CDF" {
		return chemfiles.NewFormatError("netcdf: not a classic-format NetCDF file (bad magic %q)", magic)
	}
	var version byte
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return err
	}
	if version != 1 && version != 2 {
		return chemfiles.NewFormatError("netcdf: unsupported classic-format version %d", version)
	}
	offsetsAre64Bit := version == 2

	var numrecs int32
	if err := binary.Read(r, binary.BigEndian, &numrecs); err != nil {
		return err
	}

	dims, err := readDimList(r)
	if err != nil {
		return chemfiles.WrapFormatError(err, "netcdf: dim_list")
	}
	f.dims = dims

	if err := skipAttList(r); err != nil { // global attributes
		return chemfiles.WrapFormatError(err, "netcdf: gatt_list")
	}

	vars, err := readVarList(r, offsetsAre64Bit)
	if err != nil {
		return chemfiles.WrapFormatError(err, "netcdf: var_list")
	}
	for _, v := range vars {
		f.vars[v.name] = v
	}

	coords, ok := f.vars["coordinates"]
	if !ok {
		return chemfiles.NewFormatError("netcdf: missing required 'coordinates' variable")
	}
	if len(coords.dimids) < 2 {
		return chemfiles.NewFormatError("netcdf: 'coordinates' has unexpected rank")
	}
	atomDim := dims[coords.dimids[1]]
	f.natoms = int(atomDim.length)
	_, f.hasVelocities = f.vars["velocities"]
	_, f.hasCell = f.vars["cell_lengths"]

	recSize := 0
	minBegin := int64(-1)
	for _, v := range vars {
		if v.isRecord(dims) {
			recSize += pad4(int(v.vsize))
			if minBegin == -1 || v.begin < minBegin {
				minBegin = v.begin
			}
		}
	}
	f.recSizeRead = recSize
	f.dataStart = minBegin

	if recSize == 0 {
		return nil
	}

	if numrecs != streamingNumrecs {
		for i := 0; i < int(numrecs); i++ {
			f.stepPositions = append(f.stepPositions, minBegin+int64(i)*int64(recSize))
		}
		return nil
	}

	// Streaming sentinel: forward-scan to discover how many full records
	// are actually present.
	if err := f.file.Seekg(minBegin); err != nil {
		return chemfiles.WrapFormatError(err, "netcdf: file is not seekable")
	}
	for {
		pos, err := f.file.Tellg()
		if err != nil {
			return err
		}
		if _, err := f.file.ReadExact(recSize); err != nil {
			break
		}
		f.stepPositions = append(f.stepPositions, pos)
	}
	return nil
}

func readDimList(r io.Reader) ([]dimension, error) {
	var tag, n int32
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if tag == tagAbsent {
		return nil, nil
	}
	if tag != tagDimension {
		return nil, chemfiles.NewFormatError("netcdf: expected NC_DIMENSION tag, got %d", tag)
	}
	dims := make([]dimension, n)
	for i := range dims {
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		var length int32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		dims[i] = dimension{name: name, length: length}
	}
	return dims, nil
}

func skipAttList(r io.Reader) error {
	var tag, n int32
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return err
	}
	if tag == tagAbsent {
		return nil
	}
	if tag != tagAttribute {
		return chemfiles.NewFormatError("netcdf: expected NC_ATTRIBUTE tag, got %d", tag)
	}
	for i := int32(0); i < n; i++ {
		if _, err := readName(r); err != nil {
			return err
		}
		var nctype, nelems int32
		if err := binary.Read(r, binary.BigEndian, &nctype); err != nil {
			return err
		}
		if err := binary.Read(r, binary.BigEndian, &nelems); err != nil {
			return err
		}
		valueBytes := pad4(int(nelems) * nctypeSize(nctype))
		if _, err := io.CopyN(io.Discard, r, int64(valueBytes)); err != nil {
			return err
		}
	}
	return nil
}

func readVarList(r io.Reader, offsets64 bool) ([]variable, error) {
	var tag, n int32
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if tag == tagAbsent {
		return nil, nil
	}
	if tag != tagVariable {
		return nil, chemfiles.NewFormatError("netcdf: expected NC_VARIABLE tag, got %d", tag)
	}
	vars := make([]variable, n)
	for i := range vars {
		name, err := readName(r)
		if err != nil {
			return nil, err
		}
		var ndims int32
		if err := binary.Read(r, binary.BigEndian, &ndims); err != nil {
			return nil, err
		}
		dimids := make([]int32, ndims)
		if err := binary.Read(r, binary.BigEndian, dimids); err != nil {
			return nil, err
		}
		if err := skipAttList(r); err != nil {
			return nil, err
		}
		var nctype, vsize int32
		if err := binary.Read(r, binary.BigEndian, &nctype); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &vsize); err != nil {
			return nil, err
		}
		var begin int64
		if offsets64 {
			if err := binary.Read(r, binary.BigEndian, &begin); err != nil {
				return nil, err
			}
		} else {
			var begin32 int32
			if err := binary.Read(r, binary.BigEndian, &begin32); err != nil {
				return nil, err
			}
			begin = int64(begin32)
		}
		vars[i] = variable{name: name, dimids: dimids, nctype: nctype, vsize: vsize, begin: begin}
	}
	return vars, nil
}

// --- reading frames ---

func (f *format) NSteps() (int, error) {
	return len(f.stepPositions), nil
}

func (f *format) Read(frame *chemfiles.Frame) error {
	if f.nextRead >= len(f.stepPositions) {
		return chemfiles.NewFileError("no more steps")
	}
	if err := f.readStepAt(f.stepPositions[f.nextRead], f.nextRead, frame); err != nil {
		return err
	}
	f.nextRead++
	return nil
}

func (f *format) ReadStep(i int, frame *chemfiles.Frame) error {
	if i < 0 || i >= len(f.stepPositions) {
		return chemfiles.NewFileError("step %d out of range", i)
	}
	if err := f.readStepAt(f.stepPositions[i], i, frame); err != nil {
		return err
	}
	f.nextRead = i + 1
	return nil
}

func (f *format) readStepAt(pos int64, step int, frame *chemfiles.Frame) error {
	if err := f.file.Seekg(pos); err != nil {
		return err
	}
	if _, err := f.file.ReadExact(f.recSizeRead); err != nil {
		return chemfiles.WrapFormatError(err, "netcdf: truncated record at step %d", step)
	}
	if err := f.file.Seekg(pos); err != nil {
		return err
	}
	r := f.file.Reader()

	n := f.natoms
	var cell chemfiles.UnitCell = chemfiles.NewInfiniteCell()
	var positions []chemfiles.Vector3D
	var velocities []chemfiles.Vector3D

	// Variables are laid out in declaration order within each record.
	// They are read in the fixed order below, the order this package
	// declares them in, rather than seeking per-field by each variable's
	// begin offset, since a record is one contiguous run of bytes.
	order := []string{"time", "cell_lengths", "cell_angles", "coordinates", "velocities"}
	var lengths, angles [3]float64
	for _, name := range order {
		v, ok := f.vars[name]
		if !ok {
			continue
		}
		switch name {
		case "time":
			var t float32
			if err := binary.Read(r, binary.BigEndian, &t); err != nil {
				return err
			}
			skipPad(r, int(v.vsize), 4)
		case "cell_lengths":
			if err := binary.Read(r, binary.BigEndian, &lengths); err != nil {
				return err
			}
		case "cell_angles":
			if err := binary.Read(r, binary.BigEndian, &angles); err != nil {
				return err
			}
		case "coordinates":
			vals := make([]float32, n*3)
			if err := binary.Read(r, binary.BigEndian, vals); err != nil {
				return err
			}
			positions = make([]chemfiles.Vector3D, n)
			for i := 0; i < n; i++ {
				positions[i] = chemfiles.NewVector3D(
					float64(vals[3*i])*nmToAngstrom,
					float64(vals[3*i+1])*nmToAngstrom,
					float64(vals[3*i+2])*nmToAngstrom)
			}
		case "velocities":
			vals := make([]float32, n*3)
			if err := binary.Read(r, binary.BigEndian, vals); err != nil {
				return err
			}
			velocities = make([]chemfiles.Vector3D, n)
			for i := 0; i < n; i++ {
				velocities[i] = chemfiles.NewVector3D(
					float64(vals[3*i])*nmToAngstrom,
					float64(vals[3*i+1])*nmToAngstrom,
					float64(vals[3*i+2])*nmToAngstrom)
			}
		}
	}

	if f.hasCell {
		cell = chemfiles.NewTriclinicCell(
			lengths[0]*nmToAngstrom, lengths[1]*nmToAngstrom, lengths[2]*nmToAngstrom,
			angles[0], angles[1], angles[2])
	}

	top := chemfiles.NewTopology()
	top.Resize(n)

	*frame = *chemfiles.NewFrame()
	frame.Topology = top
	frame.Positions = positions
	frame.Cell = cell
	frame.Step = uint64(step)
	if velocities != nil {
		if err := frame.SetVelocities(velocities); err != nil {
			return err
		}
	}
	return nil
}

func skipPad(r io.Reader, used, boundary int) {
	rem := pad4Of(used, boundary) - used
	if rem > 0 {
		io.CopyN(io.Discard, r, int64(rem))
	}
}

func pad4Of(used, boundary int) int {
	return (used + boundary - 1) / boundary * boundary
}

// --- writing frames ---

func (f *format) Write(frame *chemfiles.Frame) error {
	if !f.headerWritten {
		f.natoms = frame.Size()
		_, f.hasVelocities = frame.Velocities()
		f.hasCell = frame.Cell.Shape() != chemfiles.CellInfinite
		if err := f.writeHeaderAndFixedVars(); err != nil {
			return err
		}
		f.headerWritten = true
	}
	if frame.Size() != f.natoms {
		return chemfiles.NewFormatError("netcdf: frame has %d atoms, file was opened with %d", frame.Size(), f.natoms)
	}
	_, hasVel := frame.Velocities()
	if hasVel != f.hasVelocities {
		return chemfiles.NewFormatError("netcdf: velocity presence changed mid-trajectory, unsupported by classic-format fixed layout")
	}
	return f.writeRecord(frame)
}

func (f *format) writeHeaderAndFixedVars() error {
	var dims []dimension
	dims = append(dims, dimension{name: "frame", length: 0})
	dims = append(dims, dimension{name: "spatial", length: 3})
	dims = append(dims, dimension{name: "atom", length: int32(f.natoms)})
	spatialDim := int32(1)
	atomDim := int32(2)
	frameDim := int32(0)
	var cellSpatialDim, cellAngularDim int32
	if f.hasCell {
		dims = append(dims, dimension{name: "cell_spatial", length: 3})
		cellSpatialDim = int32(len(dims) - 1)
		dims = append(dims, dimension{name: "cell_angular", length: 3})
		cellAngularDim = int32(len(dims) - 1)
	}

	var vars []variable
	vars = append(vars, variable{name: "spatial", dimids: []int32{spatialDim}, nctype: ncChar, vsize: 3})
	if f.hasCell {
		vars = append(vars, variable{name: "cell_spatial", dimids: []int32{cellSpatialDim}, nctype: ncChar, vsize: 3})
		vars = append(vars, variable{name: "cell_angular", dimids: []int32{cellAngularDim}, nctype: ncChar, vsize: 3})
	}

	timeVar := variable{name: "time", dimids: []int32{frameDim}, nctype: ncFloat, vsize: 4}
	coordVar := variable{name: "coordinates", dimids: []int32{frameDim, atomDim, spatialDim}, nctype: ncFloat, vsize: int32(f.natoms * 3 * 4)}
	recordVars := []variable{timeVar}
	if f.hasCell {
		recordVars = append(recordVars,
			variable{name: "cell_lengths", dimids: []int32{frameDim, cellSpatialDim}, nctype: ncDouble, vsize: 24},
			variable{name: "cell_angles", dimids: []int32{frameDim, cellAngularDim}, nctype: ncDouble, vsize: 24})
	}
	recordVars = append(recordVars, coordVar)
	if f.hasVelocities {
		recordVars = append(recordVars, variable{name: "velocities", dimids: []int32{frameDim, atomDim, spatialDim}, nctype: ncFloat, vsize: int32(f.natoms * 3 * 4)})
	}

	allVars := append(append([]variable{}, vars...), recordVars...)

	headerSize := headerByteSize(dims, allVars)
	nonRecSize := 0
	for i := range vars {
		vars[i].begin = int64(headerSize + nonRecSize)
		nonRecSize += pad4(int(vars[i].vsize))
	}
	f.recSize = 0
	dataStart := int64(headerSize + nonRecSize)
	for i := range recordVars {
		recordVars[i].begin = dataStart + int64(f.recSize)
		f.recSize += pad4(int(recordVars[i].vsize))
	}

	var hdr bytes.Buffer
	hdr.WriteString("CDF")
	hdr.WriteByte(1)
	binary.Write(&hdr, binary.BigEndian, int32(streamingNumrecs))
	writeDimList(&hdr, dims)
	writeEmptyAttList(&hdr)
	writeVarList(&hdr, append(append([]variable{}, vars...), recordVars...))

	if hdr.Len() != headerSize {
		return chemfiles.NewFormatError("netcdf: internal header size mismatch (%d computed, %d written)", headerSize, hdr.Len())
	}
	if _, err := f.file.Write(hdr.Bytes()); err != nil {
		return err
	}

	for _, v := range vars {
		padded := make([]byte, pad4(int(v.vsize)))
		if v.name == "spatial" {
			copy(padded, "xyz")
		} else if v.name == "cell_spatial" {
			copy(padded, "abc")
		} else if v.name == "cell_angular" {
			copy(padded, "abg")
		}
		if _, err := f.file.Write(padded); err != nil {
			return err
		}
	}

	return nil
}

func headerByteSize(dims []dimension, vars []variable) int {
	size := 4 + 4 // magic+version, numrecs
	size += 8     // dim_list tag+count
	for _, d := range dims {
		size += 4 + pad4(len(d.name)) + 4
	}
	size += 8 // gatt_list tag+count (empty)
	size += 8 // var_list tag+count
	for _, v := range vars {
		size += 4 + pad4(len(v.name))     // name
		size += 4                         // ndims
		size += 4 * len(v.dimids)         // dimids
		size += 8                         // vatt_list tag+count (empty)
		size += 4                         // nctype
		size += 4                         // vsize
		size += 4                         // begin (classic version 1, 32-bit)
	}
	return size
}

func writeName(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, int32(len(s)))
	padded := make([]byte, pad4(len(s)))
	copy(padded, s)
	buf.Write(padded)
}

func writeDimList(buf *bytes.Buffer, dims []dimension) {
	binary.Write(buf, binary.BigEndian, int32(tagDimension))
	binary.Write(buf, binary.BigEndian, int32(len(dims)))
	for _, d := range dims {
		writeName(buf, d.name)
		binary.Write(buf, binary.BigEndian, d.length)
	}
}

func writeEmptyAttList(buf *bytes.Buffer) {
	binary.Write(buf, binary.BigEndian, int32(tagAbsent))
	binary.Write(buf, binary.BigEndian, int32(0))
}

func writeVarList(buf *bytes.Buffer, vars []variable) {
	binary.Write(buf, binary.BigEndian, int32(tagVariable))
	binary.Write(buf, binary.BigEndian, int32(len(vars)))
	for _, v := range vars {
		writeName(buf, v.name)
		binary.Write(buf, binary.BigEndian, int32(len(v.dimids)))
		for _, id := range v.dimids {
			binary.Write(buf, binary.BigEndian, id)
		}
		writeEmptyAttList(buf)
		binary.Write(buf, binary.BigEndian, v.nctype)
		binary.Write(buf, binary.BigEndian, v.vsize)
		binary.Write(buf, binary.BigEndian, int32(v.begin))
	}
}

func (f *format) writeRecord(frame *chemfiles.Frame) error {
	var rec bytes.Buffer
	binary.Write(&rec, binary.BigEndian, float32(frame.Step))

	if f.hasCell {
		a, b, c := frame.Cell.Lengths()
		al, be, ga := frame.Cell.Angles()
		lengths := [3]float64{a / nmToAngstrom, b / nmToAngstrom, c / nmToAngstrom}
		angles := [3]float64{al, be, ga}
		binary.Write(&rec, binary.BigEndian, lengths)
		binary.Write(&rec, binary.BigEndian, angles)
	}

	coords := make([]float32, f.natoms*3)
	for i, pos := range frame.Positions {
		coords[3*i] = float32(pos[0] / nmToAngstrom)
		coords[3*i+1] = float32(pos[1] / nmToAngstrom)
		coords[3*i+2] = float32(pos[2] / nmToAngstrom)
	}
	binary.Write(&rec, binary.BigEndian, coords)

	if f.hasVelocities {
		vel, _ := frame.Velocities()
		vals := make([]float32, f.natoms*3)
		for i, v := range vel {
			vals[3*i] = float32(v[0] / nmToAngstrom)
			vals[3*i+1] = float32(v[1] / nmToAngstrom)
			vals[3*i+2] = float32(v[2] / nmToAngstrom)
		}
		binary.Write(&rec, binary.BigEndian, vals)
	}

	if rec.Len() != f.recSize {
		return chemfiles.NewFormatError("netcdf: internal record size mismatch (%d computed, %d written)", f.recSize, rec.Len())
	}
	_, err := f.file.Write(rec.Bytes())
	return err
}
