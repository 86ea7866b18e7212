// Package cost implements the §4.6 cost functions. Each Func exposes a
// single per-node Local cost: the greedy extractor (internal/extract/greedy)
// sums Local recursively through deduplicated children (the "recursive"
// form the spec asks for), while the ILP extractor (internal/extract/ilp)
// uses Local directly as each node variable's objective coefficient (the
// "local" form) and lets its constraints account for sharing instead.
package cost

import (
	"math"

	"techmap/internal/rules/cellfile"
	"techmap/internal/term"
)

// Func is a cost model over term.Node values.
type Func interface {
	Name() string
	// Local returns n's own cost contribution, ignoring its children.
	Local(n term.Node) float64
	// GreedySafe reports whether this function may be used by the greedy
	// extractor. Negative (§4.6) reports false: a negative edge weight summed
	// along a cyclic extraction graph would diverge, so greedy refuses it.
	GreedySafe() bool
}

type klut struct {
	k         int
	regWeight float64
}

// KLUT charges 1 per LUT that fits the target fan-in, 2*m^2 per LUT that
// doesn't (discouraged but not forbidden, e.g. during intermediate
// saturation states), regWeight per Reg, 1 per Var, 0 for constants, Bus,
// Program and DC, and infinity for any raw gate so extraction never picks
// one over its LUT-bridged equivalent.
func KLUT(k int, regWeight float64) Func { return klut{k: k, regWeight: regWeight} }

func (klut) Name() string { return "KLUT" }

func (c klut) Local(n term.Node) float64 {
	switch v := n.(type) {
	case *term.Lut:
		m := len(v.Kids)
		if m <= c.k+1 {
			return 1
		}
		return 2 * float64(m) * float64(m)
	case *term.Reg:
		return c.regWeight
	case *term.Var:
		return 1
	case *term.Const, *term.Bus, *term.Program, *term.DC:
		return 0
	default:
		if n.Op().IsGate() {
			return math.Inf(1)
		}
		return 0
	}
}

func (klut) GreedySafe() bool { return true }

type depth struct{}

// Depth charges 1 per multi-input LUT and per And/Mux/Nor/Xor, 0 for
// Reg/Var/Const and every other node. The extractors sum Local over the
// extracted expression as they do for any Func; none reduces over children
// by max, so the total counts every charged node, not only those on the
// critical path.
func Depth() Func { return depth{} }

func (depth) Name() string { return "Depth" }

func (depth) Local(n term.Node) float64 {
	switch v := n.(type) {
	case *term.Lut:
		if v.K() > 1 {
			return 1
		}
		return 0
	case *term.Reg, *term.Var, *term.Const:
		return 0
	default:
		switch n.Op() {
		case term.OpAnd, term.OpMux, term.OpNor, term.OpXor:
			return 1
		default:
			return 0
		}
	}
}

func (depth) GreedySafe() bool { return true }

type area struct {
	lib        *cellfile.Library
	inverterFn func() float64
}

// Area sums a library-provided area per named Cell; Var/Const cost the
// area of the library's inverter cell (a conservative stand-in for the
// buffering those leaves eventually need); Or/And/Inv are never extracted
// so they cost infinity.
func Area(lib *cellfile.Library) Func {
	return area{lib: lib, inverterFn: func() float64 {
		if c, ok := lib.Cells["INVX1"]; ok {
			return c.Area
		}
		return 0
	}}
}

func (area) Name() string { return "Area" }

func (a area) Local(n term.Node) float64 {
	switch v := n.(type) {
	case *term.Cell:
		if c, ok := a.lib.Cells[v.Name]; ok {
			return c.Area
		}
		return math.Inf(1)
	case *term.Var, *term.Const:
		return a.inverterFn()
	default:
		switch n.Op() {
		case term.OpOr, term.OpAnd, term.OpInv:
			return math.Inf(1)
		default:
			return 0
		}
	}
}

func (area) GreedySafe() bool { return true }

type gateFilter struct {
	weights map[string]float64
}

// Gate charges the given weight to any node whose primitive name
// (n.Op().String() for gates/Lut, or term.Cell.Name) appears in weights,
// and infinity to everything else — the inverse of a filter, used to
// restrict extraction to a fixed allowed-gate set (e.g. --filter on the
// CLI).
func Gate(weights map[string]float64) Func { return gateFilter{weights: weights} }

func (gateFilter) Name() string { return "Gate" }

func (g gateFilter) Local(n term.Node) float64 {
	name := n.Op().String()
	if c, ok := n.(*term.Cell); ok {
		name = c.Name
	}
	if w, ok := g.weights[name]; ok {
		return w
	}
	return math.Inf(1)
}

func (gateFilter) GreedySafe() bool { return true }

type conjunctive struct {
	a, b Func
}

// Conjunctive combines two cost functions multiplicatively per node; the
// spec warns this is only sound with non-negative operands, so it panics
// rather than silently producing a meaningless negative product if either
// side is ILP-only (and therefore possibly negative).
func Conjunctive(a, b Func) Func {
	if !a.GreedySafe() || !b.GreedySafe() {
		panic("cost: Conjunctive requires two non-negative (greedy-safe) cost functions")
	}
	return conjunctive{a: a, b: b}
}

func (c conjunctive) Name() string { return "Conjunctive(" + c.a.Name() + "," + c.b.Name() + ")" }

func (c conjunctive) Local(n term.Node) float64 { return c.a.Local(n) * c.b.Local(n) }

func (conjunctive) GreedySafe() bool { return true }

type purged struct {
	inner Func
	names map[string]bool
}

// Purged wraps an existing cost function so that any node whose primitive
// name (n.Op().String(), or term.Cell.Name) appears in names costs
// math.Inf(1) regardless of what inner would otherwise charge it — the
// extraction-time consumer of internal/driver.Report.Purged, the set of
// operator names a SynthRequest.PurgeFn matched during saturation.
func Purged(inner Func, names map[string]bool) Func {
	if len(names) == 0 {
		return inner
	}
	return purged{inner: inner, names: names}
}

func (p purged) Name() string { return "Purged(" + p.inner.Name() + ")" }

func (p purged) Local(n term.Node) float64 {
	name := n.Op().String()
	if c, ok := n.(*term.Cell); ok {
		name = c.Name
	}
	if p.names[name] {
		return math.Inf(1)
	}
	return p.inner.Local(n)
}

func (p purged) GreedySafe() bool { return p.inner.GreedySafe() }

type negative struct {
	inner Func
}

// Negative negates an underlying cost function. A negative edge weight
// summed along a cyclic extraction graph (the e-graph's DAG of choices)
// would make the objective diverge under greedy's simple recursive
// summation, so GreedySafe reports false. The ILP extractor rejects it too
// (ilp.New returns an error for any "Negative(...)" function); of the three
// extractors, only internal/extract/dynprog accepts it.
func Negative(c Func) Func { return negative{inner: c} }

func (n negative) Name() string { return "Negative(" + n.inner.Name() + ")" }

func (n negative) Local(node term.Node) float64 { return -n.inner.Local(node) }

func (negative) GreedySafe() bool { return false }
