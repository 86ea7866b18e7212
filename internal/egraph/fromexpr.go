package egraph

import (
	"techmap/internal/dag"
)

// AddExpr inserts every node of expr into g (deduplicating through the same
// Add path a single node would use) and returns the canonical class id of
// expr's root, the counterpart of internal/dag.Builder.Add for the
// congruence-closed representation: the mapper builds a dag.Expr from a
// netlist region, and this is the one step that hands that DAG to the
// saturation engine before internal/driver.Run can rewrite it.
func (g *EGraph[V]) AddExpr(expr *dag.Expr) int {
	remap := make([]int, len(expr.Nodes))
	for i, n := range expr.Nodes {
		children := n.Children()
		clone := n.Clone()
		if len(children) > 0 {
			newChildren := make([]int, len(children))
			for j, c := range children {
				newChildren[j] = remap[c]
			}
			clone.SetChildren(newChildren)
		}
		remap[i] = g.Add(clone)
	}
	return remap[expr.RootIndex()]
}
