// Package verify implements the functional verification §4.5 calls for:
// checking that a rewritten term.Expr still computes the same Boolean
// function(s) as the one it replaced. Small cones are checked exhaustively
// over every input assignment; cones too large for that fall back to a
// fixed-seed sample of random vectors, grounded on
// original_source/src/fuzz.rs's random-choice approach (applied here to
// input vectors rather than extraction choices) via internal/fuzz.
package verify

import (
	"fmt"
	"sort"

	"techmap/internal/dag"
	"techmap/internal/fuzz"
	"techmap/internal/term"
)

// exhaustiveLimit is the largest variable count checked exhaustively
// (2^20 assignments); beyond it Equivalent falls back to random sampling.
const exhaustiveLimit = 20

// sampleSize is how many random vectors the fallback path checks.
const sampleSize = 10000

// sampleSeed is fixed so a failing Equivalent call is reproducible.
const sampleSeed = 0x5EED

// CollectVars returns the sorted, deduplicated set of Var names referenced
// anywhere in expr.
func CollectVars(expr *dag.Expr) []string {
	seen := make(map[string]bool)
	for _, n := range expr.Nodes {
		if name, ok := n.VarName(); ok {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Eval evaluates expr's root under assign, one Boolean value per root (or,
// for a multi-root Bus, per Bus member in order).
func Eval(expr *dag.Expr, assign map[string]bool) ([]bool, error) {
	memo := make(map[int]bool)
	root := expr.Root()
	if bus, ok := root.(*term.Bus); ok {
		out := make([]bool, len(bus.Kids))
		for i, k := range bus.Kids {
			v, err := evalAt(expr, k, assign, memo)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := evalAt(expr, expr.RootIndex(), assign, memo)
	if err != nil {
		return nil, err
	}
	return []bool{v}, nil
}

func evalAt(expr *dag.Expr, idx int, assign map[string]bool, memo map[int]bool) (bool, error) {
	if v, ok := memo[idx]; ok {
		return v, nil
	}
	n := expr.Nodes[idx]
	v, err := evalNode(expr, n, assign, memo)
	if err != nil {
		return false, err
	}
	memo[idx] = v
	return v, nil
}

func evalNode(expr *dag.Expr, n term.Node, assign map[string]bool, memo map[int]bool) (bool, error) {
	switch t := n.(type) {
	case *term.Var:
		v, ok := assign[t.Name]
		if !ok {
			return false, fmt.Errorf("verify: no assignment for variable %q", t.Name)
		}
		return v, nil
	case *term.Const:
		return t.Value, nil
	case *term.DC:
		return false, nil
	case *term.Lut:
		prog, ok := expr.Nodes[t.Kids[0]].(*term.Program)
		if !ok {
			return false, fmt.Errorf("verify: Lut's first child is not a Program")
		}
		k := t.K()
		bits := make([]bool, k)
		for i := 0; i < k; i++ {
			childIdx := t.Kids[1+(k-1-i)]
			v, err := evalAt(expr, childIdx, assign, memo)
			if err != nil {
				return false, err
			}
			bits[i] = v
		}
		return term.Eval(prog.Value, bits), nil
	case *term.Gate:
		return evalGate(expr, t, assign, memo)
	default:
		return false, fmt.Errorf("verify: %s nodes are not combinationally evaluable", n.Op())
	}
}

func evalGate(expr *dag.Expr, g *term.Gate, assign map[string]bool, memo map[int]bool) (bool, error) {
	arg := func(i int) (bool, error) { return evalAt(expr, g.Kids[i], assign, memo) }
	switch g.GateOp {
	case term.OpAnd:
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		b, err := arg(1)
		if err != nil {
			return false, err
		}
		return a && b, nil
	case term.OpOr:
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		b, err := arg(1)
		if err != nil {
			return false, err
		}
		return a || b, nil
	case term.OpXor:
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		b, err := arg(1)
		if err != nil {
			return false, err
		}
		return a != b, nil
	case term.OpNor:
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		b, err := arg(1)
		if err != nil {
			return false, err
		}
		return !(a || b), nil
	case term.OpInv, term.OpNot:
		a, err := arg(0)
		if err != nil {
			return false, err
		}
		return !a, nil
	case term.OpMux:
		s, err := arg(0)
		if err != nil {
			return false, err
		}
		a, err := arg(1)
		if err != nil {
			return false, err
		}
		b, err := arg(2)
		if err != nil {
			return false, err
		}
		if s {
			return a, nil
		}
		return b, nil
	default:
		return false, fmt.Errorf("verify: unhandled gate op %s", g.GateOp)
	}
}

// Equivalent checks whether a and b compute the same function(s) over their
// shared variable set. It returns false with a counterexample assignment on
// the first mismatch found.
func Equivalent(a, b *dag.Expr) (ok bool, counterexample map[string]bool, err error) {
	vars := CollectVars(a)
	bVars := CollectVars(b)
	varSet := make(map[string]bool)
	for _, v := range vars {
		varSet[v] = true
	}
	for _, v := range bVars {
		varSet[v] = true
	}
	ordered := make([]string, 0, len(varSet))
	for v := range varSet {
		ordered = append(ordered, v)
	}
	sort.Strings(ordered)

	check := func(assign map[string]bool) (bool, error) {
		av, err := Eval(a, assign)
		if err != nil {
			return false, fmt.Errorf("verify: evaluating original: %w", err)
		}
		bv, err := Eval(b, assign)
		if err != nil {
			return false, fmt.Errorf("verify: evaluating rewritten: %w", err)
		}
		if len(av) != len(bv) {
			return false, fmt.Errorf("verify: root arity mismatch: %d vs %d", len(av), len(bv))
		}
		for i := range av {
			if av[i] != bv[i] {
				return false, nil
			}
		}
		return true, nil
	}

	if len(ordered) <= exhaustiveLimit {
		total := 1 << uint(len(ordered))
		for row := 0; row < total; row++ {
			assign := make(map[string]bool, len(ordered))
			for i, v := range ordered {
				assign[v] = (row>>uint(i))&1 != 0
			}
			match, err := check(assign)
			if err != nil {
				return false, nil, err
			}
			if !match {
				return false, assign, nil
			}
		}
		return true, nil, nil
	}

	for _, bits := range fuzz.RandomVectors(sampleSeed, len(ordered), sampleSize) {
		assign := make(map[string]bool, len(ordered))
		for i, v := range ordered {
			assign[v] = bits[i]
		}
		match, err := check(assign)
		if err != nil {
			return false, nil, err
		}
		if !match {
			return false, assign, nil
		}
	}
	return true, nil, nil
}
