// Package selection implements the textual query language over frames
// described in spec.md §4.5: a tokenizer, a recursive-descent parser, and
// an AST evaluator producing sorted, deduplicated atom indices or
// atom-tuples (pairs/triples/quads).
package selection

import (
	"sort"

	"github.com/molcore/chemfiles"
)

// Selection is a compiled query. Compile it once and evaluate it against
// as many frames as needed.
type Selection struct {
	expr  string
	arity int
	root  node
}

// Compile parses expr for the given arity (1 for atoms, 2/3/4 for
// pairs/triples/quads) and returns a compiled Selection. Lexical or
// syntax errors are returned as a *chemfiles.SelectionError carrying a
// byte offset into expr.
func Compile(expr string, arity int) (*Selection, error) {
	if arity < 1 || arity > 4 {
		return nil, chemfiles.NewSelectionError(0, "unsupported arity %d (must be 1-4)", arity)
	}
	root, err := parseSelection(expr, arity)
	if err != nil {
		return nil, err
	}
	return &Selection{expr: expr, arity: arity, root: root}, nil
}

// Arity returns the tuple size this selection was compiled for.
func (s *Selection) Arity() int { return s.arity }

// String returns the original selection text.
func (s *Selection) String() string { return s.expr }

// Evaluate runs the compiled selection against frame, returning a sorted,
// deduplicated list of index-tuples (each of length Arity()) for which
// the predicate holds. Evaluation is O(N^arity) in the worst case, per
// spec.md §4.5.
func (s *Selection) Evaluate(frame *chemfiles.Frame) ([][]int64, error) {
	n := frame.Size()
	ctx := &evalContext{frame: frame, tuple: make([]int64, s.arity)}

	var results [][]int64
	var err error

	var recurse func(depth int)
	recurse = func(depth int) {
		if err != nil {
			return
		}
		if depth == s.arity {
			ok, evalErr := s.root.evaluate(ctx)
			if evalErr != nil {
				err = evalErr
				return
			}
			if ok {
				tuple := append([]int64(nil), ctx.tuple...)
				results = append(results, tuple)
			}
			return
		}
		for i := 0; i < n; i++ {
			idx := int64(i)
			if containsInt64(ctx.tuple[:depth], idx) {
				continue
			}
			ctx.tuple[depth] = idx
			recurse(depth + 1)
			if err != nil {
				return
			}
		}
	}
	recurse(0)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return lessTuple(results[i], results[j]) })
	return dedupTuples(results), nil
}

// Indices is a convenience for arity-1 selections, flattening the
// single-element tuples into a plain sorted, deduplicated index slice.
func (s *Selection) Indices(frame *chemfiles.Frame) ([]int64, error) {
	tuples, err := s.Evaluate(frame)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(tuples))
	for i, t := range tuples {
		out[i] = t[0]
	}
	return out, nil
}

func containsInt64(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func lessTuple(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func dedupTuples(sorted [][]int64) [][]int64 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, t := range sorted[1:] {
		if !equalTuple(t, out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

func equalTuple(a, b []int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
