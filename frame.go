package chemfiles

// Frame is one snapshot of a simulated molecular system: a step counter,
// positions, optional velocities, a Topology owned exclusively by the
// frame, a unit cell, and a property map.
//
// Invariant: len(Positions) == Topology.AtomCount(); if Velocities is
// present, len(Velocities) == len(Positions). Mutators that change the
// atom count update all three sizes atomically.
type Frame struct {
	Step       uint64
	Positions  []Vector3D
	velocities Optional[[]Vector3D]
	Topology   *Topology
	Cell       UnitCell
	Properties PropertyMap
}

// NewFrame builds an empty frame: zero atoms, infinite cell, no
// velocities.
func NewFrame() *Frame {
	return &Frame{Topology: NewTopology(), Cell: NewInfiniteCell()}
}

// NewFrameWithTopology builds a frame from an initial topology and cell;
// positions are zero-initialized to match the topology's atom count.
func NewFrameWithTopology(top *Topology, cell UnitCell) *Frame {
	return &Frame{
		Positions: make([]Vector3D, top.AtomCount()),
		Topology:  top,
		Cell:      cell,
	}
}

// Size returns the number of atoms in the frame.
func (f *Frame) Size() int { return len(f.Positions) }

// HasVelocities reports whether the frame carries velocities.
func (f *Frame) HasVelocities() bool { return f.velocities.IsSome() }

// Velocities returns the velocity slice and whether it is present.
func (f *Frame) Velocities() ([]Vector3D, bool) { return f.velocities.Get() }

// SetVelocities installs a velocity slice, which must match the frame's
// current size.
func (f *Frame) SetVelocities(v []Vector3D) error {
	if len(v) != f.Size() {
		return NewConfigurationError("velocities length %d does not match frame size %d", len(v), f.Size())
	}
	f.velocities = Some(v)
	return nil
}

// ClearVelocities drops any velocity data.
func (f *Frame) ClearVelocities() {
	f.velocities = None[[]Vector3D]()
}

// Resize truncates or zero-pads positions, velocities (if present), and
// the topology to n atoms, per spec.md §3's lifecycle rules.
func (f *Frame) Resize(n int) {
	f.Positions = resizeVectors(f.Positions, n)
	if v, ok := f.velocities.Get(); ok {
		f.velocities = Some(resizeVectors(v, n))
	}
	f.Topology.Resize(n)
}

func resizeVectors(v []Vector3D, n int) []Vector3D {
	if n <= len(v) {
		return v[:n]
	}
	out := make([]Vector3D, n)
	copy(out, v)
	return out
}

// AddAtom appends an atom, its position, and (if the frame already
// carries velocities) its velocity -- default-zero if vel is not given.
func (f *Frame) AddAtom(a Atom, pos Vector3D, vel ...Vector3D) {
	f.Topology.AddAtom(a)
	f.Positions = append(f.Positions, pos)
	if v, ok := f.velocities.Get(); ok {
		var vv Vector3D
		if len(vel) > 0 {
			vv = vel[0]
		}
		f.velocities = Some(append(v, vv))
	}
}

// RemoveAtom removes atom index i, shifting higher indices down across
// positions, velocities, and the topology (bonds, residues) alike.
func (f *Frame) RemoveAtom(i int) {
	f.Positions = append(f.Positions[:i], f.Positions[i+1:]...)
	if v, ok := f.velocities.Get(); ok {
		f.velocities = Some(append(v[:i], v[i+1:]...))
	}
	f.Topology.RemoveAtom(i)
}

// SetProperty attaches a property to the frame, allocating the map on
// first use.
func (f *Frame) SetProperty(key string, p Property) {
	if f.Properties == nil {
		f.Properties = make(PropertyMap)
	}
	f.Properties[key] = p
}

// Property looks up a frame-level property by key.
func (f *Frame) Property(key string) (Property, bool) {
	p, ok := f.Properties[key]
	return p, ok
}

// checkInvariant validates the core size invariant, returning a
// ConfigurationError on a mismatch. It is unexported, so format adapters
// in other packages cannot call it.
func (f *Frame) checkInvariant() error {
	if len(f.Positions) != f.Topology.AtomCount() {
		return NewConfigurationError(
			"frame invariant violated: %d positions, %d topology atoms",
			len(f.Positions), f.Topology.AtomCount())
	}
	if v, ok := f.velocities.Get(); ok && len(v) != len(f.Positions) {
		return NewConfigurationError(
			"frame invariant violated: %d velocities, %d positions",
			len(v), len(f.Positions))
	}
	return nil
}
