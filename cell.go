package chemfiles

import "math"

// CellShape identifies the UnitCell variant.
type CellShape int

const (
	CellInfinite CellShape = iota
	CellOrthorhombic
	CellTriclinic
)

func (s CellShape) String() string {
	switch s {
	case CellOrthorhombic:
		return "ORTHORHOMBIC"
	case CellTriclinic:
		return "TRICLINIC"
	default:
		return "INFINITE"
	}
}

// UnitCell describes the parallelepiped defining periodic boundaries.
// Its canonical internal form is the 3x3 upper-triangular matrix;
// lengths/angles are a view onto it. Lengths are in angstroms, angles in
// degrees.
type UnitCell struct {
	shape  CellShape
	matrix Matrix3D
}

// NewInfiniteCell returns a cell with no periodicity.
func NewInfiniteCell() UnitCell {
	return UnitCell{shape: CellInfinite}
}

// NewOrthorhombicCell builds a cell from three orthogonal lengths.
func NewOrthorhombicCell(a, b, c float64) UnitCell {
	return UnitCell{
		shape:  CellOrthorhombic,
		matrix: Matrix3D{{a, 0, 0}, {0, b, 0}, {0, 0, c}},
	}
}

// NewTriclinicCell builds a cell from lengths (angstrom) and angles
// (degrees), following the standard upper-triangular convention: a along
// x, b in the xy plane, c completing the basis.
func NewTriclinicCell(a, b, c, alpha, beta, gamma float64) UnitCell {
	toRad := math.Pi / 180
	al, be, ga := alpha*toRad, beta*toRad, gamma*toRad

	cosA, cosB, cosG := math.Cos(al), math.Cos(be), math.Cos(ga)
	sinG := math.Sin(ga)

	bx := b * cosG
	by := b * sinG

	cx := c * cosB
	cy := c * (cosA - cosB*cosG) / sinG
	cz2 := c*c - cx*cx - cy*cy
	cz := 0.0
	if cz2 > 0 {
		cz = math.Sqrt(cz2)
	}

	return UnitCell{
		shape:  CellTriclinic,
		matrix: Matrix3D{{a, bx, cx}, {0, by, cy}, {0, 0, cz}},
	}
}

// NewCellFromMatrix builds a cell directly from an explicit upper
// triangular matrix, classifying it as orthorhombic or triclinic
// depending on whether the off-diagonal terms are all zero.
func NewCellFromMatrix(m Matrix3D) UnitCell {
	if m[0][1] == 0 && m[0][2] == 0 && m[1][2] == 0 {
		return UnitCell{shape: CellOrthorhombic, matrix: m}
	}
	return UnitCell{shape: CellTriclinic, matrix: m}
}

func (c UnitCell) Shape() CellShape { return c.shape }

func (c UnitCell) Matrix() Matrix3D { return c.matrix }

// Lengths returns (a, b, c) in angstroms.
func (c UnitCell) Lengths() (float64, float64, float64) {
	col := func(j int) Vector3D {
		return Vector3D{c.matrix[0][j], c.matrix[1][j], c.matrix[2][j]}
	}
	return col(0).Norm(), col(1).Norm(), col(2).Norm()
}

// Angles returns (alpha, beta, gamma) in degrees, the angles between
// (b,c), (a,c), (a,b) respectively.
func (c UnitCell) Angles() (float64, float64, float64) {
	if c.shape == CellInfinite {
		return 90, 90, 90
	}
	col := func(j int) Vector3D {
		return Vector3D{c.matrix[0][j], c.matrix[1][j], c.matrix[2][j]}
	}
	a, b, cc := col(0), col(1), col(2)
	angle := func(u, v Vector3D) float64 {
		cos := u.Dot(v) / (u.Norm() * v.Norm())
		if cos > 1 {
			cos = 1
		} else if cos < -1 {
			cos = -1
		}
		return math.Acos(cos) * 180 / math.Pi
	}
	return angle(b, cc), angle(a, cc), angle(a, b)
}

// Volume returns the determinant of the cell matrix, 0 for INFINITE.
func (c UnitCell) Volume() float64 {
	if c.shape == CellInfinite {
		return 0
	}
	return c.matrix.Determinant()
}

// wrap returns the minimum-image displacement for d under this cell. For
// INFINITE cells it is the identity.
func (c UnitCell) wrap(d Vector3D) Vector3D {
	if c.shape == CellInfinite {
		return d
	}
	inv := c.matrix.Inverse()
	frac := inv.MulVec(d)
	for i := 0; i < 3; i++ {
		frac[i] -= math.Round(frac[i])
	}
	return c.matrix.MulVec(frac)
}
