// Package analysis implements the §4.3 per-class analysis lattice used
// across the engine: constant propagation (including LUTs whose program is
// constant over its inputs) plus one cheap derived metric, the class depth.
package analysis

import (
	"fmt"

	"techmap/internal/egraph"
	"techmap/internal/term"
)

// Value is one class's analysis payload. IsConst/ConstVal implement §4.3's
// constant-propagation requirement; Depth is, over every node currently in
// the class, the smallest of each node's longest path (in edges) to a leaf.
type Value struct {
	IsConst  bool
	ConstVal bool
	Depth    int
}

// Lattice implements egraph.Analysis[Value].
type Lattice struct{}

// Make derives a fresh class's analysis from one freshly-added node, using
// the e-graph to read each child's already-known analysis.
func (Lattice) Make(g *egraph.EGraph[Value], n term.Node) Value {
	children := n.Children()
	minDepth := 0
	for _, c := range children {
		if cv := g.Data(c); cv.Depth+1 > minDepth {
			minDepth = cv.Depth + 1
		}
	}

	if c, ok := n.(*term.Const); ok {
		return Value{IsConst: true, ConstVal: c.Value, Depth: 0}
	}

	if lut, ok := n.(*term.Lut); ok && len(lut.Kids) > 0 {
		if prog, ok := anyProgram(g, lut.Kids[0]); ok {
			k := lut.K()
			if term.IsConstZero(prog, k) {
				return Value{IsConst: true, ConstVal: false, Depth: minDepth}
			}
			if term.IsConstOne(prog, k) {
				return Value{IsConst: true, ConstVal: true, Depth: minDepth}
			}
		}
	}

	return Value{Depth: minDepth}
}

func anyProgram(g *egraph.EGraph[Value], classID int) (uint64, bool) {
	for _, n := range g.Nodes(classID) {
		if p, ok := n.(*term.Program); ok {
			return p.Value, true
		}
	}
	return 0, false
}

// Join combines two merging classes' values. Two known, disagreeing
// constants are the conflict case named by §4.3 invariant (iii).
func (Lattice) Join(a, b Value) (Value, error) {
	out := Value{Depth: min(a.Depth, b.Depth)}
	switch {
	case a.IsConst && b.IsConst:
		if a.ConstVal != b.ConstVal {
			return Value{}, fmt.Errorf("analysis: conflicting constants %v and %v", a.ConstVal, b.ConstVal)
		}
		out.IsConst, out.ConstVal = true, a.ConstVal
	case a.IsConst:
		out.IsConst, out.ConstVal = true, a.ConstVal
	case b.IsConst:
		out.IsConst, out.ConstVal = true, b.ConstVal
	}
	return out, nil
}

// Modify materializes a Const node into any class an analysis has proven
// constant, the example given by §4.3 for the modify() hook, so extraction
// can always pick a trivial-cost Const leaf for a proven-constant class.
func (Lattice) Modify(g *egraph.EGraph[Value], class int) {
	v := g.Data(class)
	if !v.IsConst {
		return
	}
	for _, n := range g.Nodes(class) {
		if c, ok := n.(*term.Const); ok && c.Value == v.ConstVal {
			return
		}
	}
	newID := g.Add(&term.Const{Value: v.ConstVal})
	if newID != g.Find(class) {
		_, _ = g.Union(newID, class)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
