// Package greedy implements the bottom-up fixed-point extractor of §4.6:
// repeatedly relax each class's minimum cost until no class changes, then
// reconstruct the cheapest node choice per class into a dag.Expr.
package greedy

import (
	"fmt"
	"math"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/dag"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// Extractor runs the greedy extraction algorithm against one e-graph.
type Extractor struct {
	g    *egraph.EGraph[analysis.Value]
	cost cost.Func
}

// New builds an Extractor. costFn must be GreedySafe (Negative is not).
func New(g *egraph.EGraph[analysis.Value], costFn cost.Func) (*Extractor, error) {
	if !costFn.GreedySafe() {
		return nil, fmt.Errorf("greedy: cost function %q is not safe for greedy extraction", costFn.Name())
	}
	return &Extractor{g: g, cost: costFn}, nil
}

// Extract returns the cheapest expression rooted at root's class, plus its
// total cost, reconstructed as an ordered dag.Expr.
func (e *Extractor) Extract(root int) (*dag.Expr, float64, error) {
	root = e.g.Find(root)
	best, bestNode := e.fixpoint()

	if math.IsInf(best[root], 1) {
		return nil, 0, fmt.Errorf("greedy: class %d has no finite-cost extraction", root)
	}

	b := dag.NewBuilder()
	memo := make(map[int]int)
	idx, err := e.build(root, bestNode, b, memo)
	if err != nil {
		return nil, 0, err
	}
	return b.Build(idx), best[root], nil
}

// fixpoint relaxes every class's best cost until stable, exactly the
// "iterate over classes ... terminate when no class's minimum changes"
// algorithm from §4.6, deduplicating repeated children before summing so a
// node like And(a,a) counts a's cost once, not twice.
func (e *Extractor) fixpoint() (map[int]float64, map[int]term.Node) {
	best := make(map[int]float64)
	bestNode := make(map[int]term.Node)
	classes := e.g.Classes()
	for _, c := range classes {
		best[c] = math.Inf(1)
	}

	for changed := true; changed; {
		changed = false
		for _, c := range classes {
			for _, n := range e.g.Nodes(c) {
				total := e.cost.Local(n)
				if math.IsInf(total, 1) {
					continue
				}
				seen := make(map[int]bool, len(n.Children()))
				for _, child := range n.Children() {
					root := e.g.Find(child)
					if seen[root] {
						continue
					}
					seen[root] = true
					total += best[root]
				}
				if total < best[c] {
					best[c] = total
					bestNode[c] = n
					changed = true
				}
			}
		}
	}
	return best, bestNode
}

func (e *Extractor) build(classID int, bestNode map[int]term.Node, b *dag.Builder, memo map[int]int) (int, error) {
	classID = e.g.Find(classID)
	if idx, ok := memo[classID]; ok {
		return idx, nil
	}
	n, ok := bestNode[classID]
	if !ok {
		return 0, fmt.Errorf("greedy: class %d was never assigned a finite-cost node", classID)
	}

	children := n.Children()
	childIdx := make([]int, len(children))
	for i, c := range children {
		idx, err := e.build(c, bestNode, b, memo)
		if err != nil {
			return 0, err
		}
		childIdx[i] = idx
	}

	clone := n.Clone()
	if len(childIdx) > 0 {
		clone.SetChildren(childIdx)
	}
	idx := b.Add(clone)
	memo[classID] = idx
	return idx, nil
}
