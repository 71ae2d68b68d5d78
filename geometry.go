package chemfiles

import "math"

// Distance computes the minimum-image distance between atoms i and j
// under the frame's cell, per spec.md §4.4.
func Distance(f *Frame, i, j int) float64 {
	d := f.Positions[i].Sub(f.Positions[j])
	return f.Cell.wrap(d).Norm()
}

// Angle computes the angle (in radians) at atom j between atoms i-j-k,
// on PBC-wrapped vectors.
func Angle(f *Frame, i, j, k int) float64 {
	rij := f.Cell.wrap(f.Positions[i].Sub(f.Positions[j]))
	rkj := f.Cell.wrap(f.Positions[k].Sub(f.Positions[j]))
	cos := rij.Dot(rkj) / (rij.Norm() * rkj.Norm())
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// Dihedral computes the dihedral angle (in radians) along bonds i-j-k-l,
// on PBC-wrapped vectors.
func Dihedral(f *Frame, i, j, k, l int) float64 {
	b1 := f.Cell.wrap(f.Positions[j].Sub(f.Positions[i]))
	b2 := f.Cell.wrap(f.Positions[k].Sub(f.Positions[j]))
	b3 := f.Cell.wrap(f.Positions[l].Sub(f.Positions[k]))

	n1 := b1.Cross(b2)
	n2 := b2.Cross(b3)

	m1 := n1.Cross(b2.Normalize())

	x := n1.Dot(n2)
	y := m1.Dot(n2)

	return math.Atan2(y, x)
}

// OutOfPlane computes the signed out-of-plane distance from atom j to
// the plane spanned by atoms i, k, m (the plane through their centroid,
// normal from the cross product), per spec.md §4.4's improper geometry.
func OutOfPlane(f *Frame, i, j, k, m int) float64 {
	pi := f.Positions[i]
	pj := f.Positions[j]
	pk := f.Positions[k]
	pm := f.Positions[m]

	centroid := pi.Add(pk).Add(pm).Scale(1.0 / 3.0)

	rik := f.Cell.wrap(pk.Sub(pi))
	rim := f.Cell.wrap(pm.Sub(pi))
	normal := rik.Cross(rim).Normalize()

	toJ := f.Cell.wrap(pj.Sub(centroid))
	return toJ.Dot(normal)
}
