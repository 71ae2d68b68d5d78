package chemfiles

import "testing"

func TestVector3DArithmetic(t *testing.T) {
	a := NewVector3D(1, 2, 3)
	b := NewVector3D(4, 5, 6)

	if got := a.Add(b); got != (Vector3D{5, 7, 9}) {
		t.Fatalf("Add = %v, want {5 7 9}", got)
	}
	if got := b.Sub(a); got != (Vector3D{3, 3, 3}) {
		t.Fatalf("Sub = %v, want {3 3 3}", got)
	}
	if got := a.Scale(2); got != (Vector3D{2, 4, 6}) {
		t.Fatalf("Scale = %v, want {2 4 6}", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Fatalf("Dot = %v, want 32", got)
	}
	if got := a.Cross(b); got != (Vector3D{-3, 6, -3}) {
		t.Fatalf("Cross = %v, want {-3 6 -3}", got)
	}
}

func TestVector3DNorm(t *testing.T) {
	v := NewVector3D(3, 4, 0)
	if got := v.Norm(); got != 5 {
		t.Fatalf("Norm = %v, want 5", got)
	}
	n := v.Normalize()
	if abs(n.Norm()-1) > 1e-12 {
		t.Fatalf("Normalize() norm = %v, want 1", n.Norm())
	}

	zero := NewVector3D(0, 0, 0)
	if got := zero.Normalize(); got != zero {
		t.Fatalf("Normalize() of zero vector = %v, want zero", got)
	}
}

func TestMatrix3DIdentityAndMulVec(t *testing.T) {
	m := Identity()
	v := NewVector3D(1, 2, 3)
	if got := m.MulVec(v); got != v {
		t.Fatalf("Identity().MulVec = %v, want %v", got, v)
	}
}

func TestMatrix3DDeterminantAndInverse(t *testing.T) {
	m := Matrix3D{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}}
	if got := m.Determinant(); got != 24 {
		t.Fatalf("Determinant = %v, want 24", got)
	}

	inv := m.Inverse()
	want := Matrix3D{{0.5, 0, 0}, {0, 1.0 / 3.0, 0}, {0, 0, 0.25}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if abs(inv[i][j]-want[i][j]) > 1e-12 {
				t.Fatalf("Inverse()[%d][%d] = %v, want %v", i, j, inv[i][j], want[i][j])
			}
		}
	}
}

func TestMatrix3DTranspose(t *testing.T) {
	m := Matrix3D{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	got := m.Transpose()
	want := Matrix3D{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}
	if got != want {
		t.Fatalf("Transpose = %v, want %v", got, want)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
