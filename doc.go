// Package chemfiles reads and writes molecular-simulation trajectories
// across many file formats behind one in-memory model and one streaming
// API.
//
// A Trajectory is a finite, ordered sequence of Frames, each a snapshot
// of a simulated system: positions, optional velocities, a Topology
// (atoms, residues, bond graph, derived angles/dihedrals/impropers), a
// UnitCell, and free-form properties. Format adapters live in
// subpackages (e.g. chemfiles/formats/xyz) and register themselves with
// RegisterFormat from an init function; importing an adapter package for
// its side effect is enough to make Open recognize its extension.
package chemfiles
