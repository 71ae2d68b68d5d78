package selection

import "github.com/molcore/chemfiles"

// argRef is an argument to a topology-membership predicate
// (is_bonded/is_angle/is_dihedral/is_improper): either a literal atom
// index or a reference to a slot in the tuple currently being evaluated
// (#1..#4), per SPEC_FULL.md §4.5.
type argRef struct {
	isSlot  bool
	slot    int   // 1-based
	literal int64
}

func (a argRef) resolve(tuple []int64) int64 {
	if a.isSlot {
		return tuple[a.slot-1]
	}
	return a.literal
}

// evalContext carries the frame and the current candidate tuple through
// AST evaluation.
type evalContext struct {
	frame *chemfiles.Frame
	tuple []int64
}

// node is the boxed recursive AST sum type: And | Or | Not | Predicate,
// with a single evaluate operation, per spec.md §9 (no visitor pattern).
type node interface {
	evaluate(ctx *evalContext) (bool, error)
}

type constNode struct{ value bool }

func (n constNode) evaluate(*evalContext) (bool, error) { return n.value, nil }

type andNode struct{ left, right node }

func (n andNode) evaluate(ctx *evalContext) (bool, error) {
	l, err := n.left.evaluate(ctx)
	if err != nil || !l {
		return false, err
	}
	return n.right.evaluate(ctx)
}

type orNode struct{ left, right node }

func (n orNode) evaluate(ctx *evalContext) (bool, error) {
	l, err := n.left.evaluate(ctx)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return n.right.evaluate(ctx)
}

type notNode struct{ operand node }

func (n notNode) evaluate(ctx *evalContext) (bool, error) {
	v, err := n.operand.evaluate(ctx)
	return !v, err
}

// compareOp is one of the six comparison operators.
type compareOp int

const (
	opEq compareOp = iota
	opNe
	opLt
	opLe
	opGt
	opGe
)

func parseCompareOp(s string, offset int) (compareOp, error) {
	switch s {
	case "==":
		return opEq, nil
	case "!=":
		return opNe, nil
	case "<":
		return opLt, nil
	case "<=":
		return opLe, nil
	case ">":
		return opGt, nil
	case ">=":
		return opGe, nil
	default:
		return 0, chemfiles.NewSelectionError(offset, "unknown operator %q", s)
	}
}

func compareNumbers(a float64, op compareOp, b float64) bool {
	switch op {
	case opEq:
		return a == b
	case opNe:
		return a != b
	case opLt:
		return a < b
	case opLe:
		return a <= b
	case opGt:
		return a > b
	case opGe:
		return a >= b
	default:
		return false
	}
}

func compareStrings(a string, op compareOp, b string) bool {
	switch op {
	case opEq:
		return a == b
	case opNe:
		return a != b
	default:
		return false
	}
}

// stringFieldNode matches atom-level text fields: name, type, resname.
type stringFieldNode struct {
	slot  int
	field string // "name", "type", "resname"
	op    compareOp
	value string
}

func (n stringFieldNode) evaluate(ctx *evalContext) (bool, error) {
	idx := ctx.tuple[n.slot-1]
	top := ctx.frame.Topology
	switch n.field {
	case "name":
		return compareStrings(top.Atom(int(idx)).Name, n.op, n.value), nil
	case "type":
		return compareStrings(top.Atom(int(idx)).EffectiveType(), n.op, n.value), nil
	case "resname":
		res, ok := top.ResidueForAtom(idx)
		if !ok {
			return false, nil
		}
		return compareStrings(res.Name, n.op, n.value), nil
	}
	return false, chemfiles.NewSelectionError(0, "unknown string field %q", n.field)
}

// numberFieldNode matches numeric atom fields: index, mass, x, y, z,
// vx, vy, vz, resid.
type numberFieldNode struct {
	slot  int
	field string
	op    compareOp
	value float64
}

func (n numberFieldNode) evaluate(ctx *evalContext) (bool, error) {
	idx := ctx.tuple[n.slot-1]
	top := ctx.frame.Topology
	switch n.field {
	case "index":
		return compareNumbers(float64(idx), n.op, n.value), nil
	case "mass":
		return compareNumbers(top.Atom(int(idx)).Mass, n.op, n.value), nil
	case "x", "y", "z":
		pos := ctx.frame.Positions[idx]
		var v float64
		switch n.field {
		case "x":
			v = pos[0]
		case "y":
			v = pos[1]
		case "z":
			v = pos[2]
		}
		return compareNumbers(v, n.op, n.value), nil
	case "vx", "vy", "vz":
		vel, ok := ctx.frame.Velocities()
		if !ok {
			return false, nil
		}
		v := vel[idx]
		var x float64
		switch n.field {
		case "vx":
			x = v[0]
		case "vy":
			x = v[1]
		case "vz":
			x = v[2]
		}
		return compareNumbers(x, n.op, n.value), nil
	case "resid":
		res, ok := top.ResidueForAtom(idx)
		if !ok {
			return false, nil
		}
		id, ok := res.ID.Get()
		if !ok {
			return false, nil
		}
		return compareNumbers(float64(id), n.op, n.value), nil
	}
	return false, chemfiles.NewSelectionError(0, "unknown numeric field %q", n.field)
}

// topologyNode matches is_bonded/is_angle/is_dihedral/is_improper.
type topologyNode struct {
	kind string // "is_bonded", "is_angle", "is_dihedral", "is_improper"
	args []argRef
}

func (n topologyNode) evaluate(ctx *evalContext) (bool, error) {
	top := ctx.frame.Topology
	resolved := make([]int64, len(n.args))
	for i, a := range n.args {
		resolved[i] = a.resolve(ctx.tuple)
	}
	switch n.kind {
	case "is_bonded":
		return top.HasBond(resolved[0], resolved[1]), nil
	case "is_angle":
		return top.IsAngle(resolved[0], resolved[1], resolved[2]), nil
	case "is_dihedral":
		return top.IsDihedral(resolved[0], resolved[1], resolved[2], resolved[3]), nil
	case "is_improper":
		return top.IsImproper(resolved[0], resolved[1], resolved[2], resolved[3]), nil
	}
	return false, chemfiles.NewSelectionError(0, "unknown topology predicate %q", n.kind)
}
