package chemfiles

import "math"

// Vector3D is an ordered triple of 64-bit floats, used for positions,
// velocities, and cell vectors. Units are angstroms (or angstroms per
// picosecond for velocities) unless documented otherwise.
type Vector3D [3]float64

func NewVector3D(x, y, z float64) Vector3D { return Vector3D{x, y, z} }

func (v Vector3D) X() float64 { return v[0] }
func (v Vector3D) Y() float64 { return v[1] }
func (v Vector3D) Z() float64 { return v[2] }

func (a Vector3D) Add(b Vector3D) Vector3D {
	return Vector3D{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vector3D) Sub(b Vector3D) Vector3D {
	return Vector3D{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a Vector3D) Scale(s float64) Vector3D {
	return Vector3D{a[0] * s, a[1] * s, a[2] * s}
}

func (a Vector3D) Dot(b Vector3D) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vector3D) Cross(b Vector3D) Vector3D {
	return Vector3D{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vector3D) Norm() float64 {
	return math.Sqrt(a.Dot(a))
}

func (a Vector3D) Normalize() Vector3D {
	n := a.Norm()
	if n == 0 {
		return a
	}
	return a.Scale(1 / n)
}

// Matrix3D is a row-major 3x3 matrix of 64-bit floats, used as the
// canonical unit cell representation.
type Matrix3D [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3D {
	return Matrix3D{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Zero3D returns the 3x3 zero matrix.
func Zero3D() Matrix3D {
	return Matrix3D{}
}

// MulVec multiplies the matrix by a column vector.
func (m Matrix3D) MulVec(v Vector3D) Vector3D {
	return Vector3D{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Determinant returns the determinant of the matrix.
func (m Matrix3D) Determinant() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Inverse returns the matrix inverse. For a singular matrix (determinant
// exactly 0) it returns the identity matrix instead; UnitCell.wrap does
// not call it for an INFINITE cell, which it treats as the identity
// transform.
func (m Matrix3D) Inverse() Matrix3D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}
	invDet := 1 / det
	var out Matrix3D
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return out
}

func (m Matrix3D) Transpose() Matrix3D {
	var out Matrix3D
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}
