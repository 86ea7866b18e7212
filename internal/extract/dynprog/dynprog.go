// Package dynprog ports original_source/src/dyn_extractor.rs's DynExtractor
// into idiomatic Go: an exact dynamic-programming extractor that, per
// eclass, keeps a Pareto front of up to 1000 equal-cost candidate
// expressions (deduplicated by structural equality) rather than collapsing
// immediately to one, then explores every permutation of a node's
// children's candidate lists when combining them into a parent candidate.
// This is the one package with a line-for-line algorithmic original, so its
// grounding is original_source rather than the teacher.
//
// Unlike internal/extract/greedy, dynprog's cost total is a flat sum of
// cost.Func.Local over an already-reconstructed, acyclic dag.Expr — not a
// per-class value propagated through a possibly-cyclic e-graph before any
// expression exists. That makes it safe to use a Negative cost function
// here even though greedy and the ILP encoder both refuse one.
package dynprog

import (
	"fmt"
	"math"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/dag"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// maxParetoFront mirrors dyn_extractor.rs's hardcoded cap of 1000
// equal-cost alternatives retained per eclass.
const maxParetoFront = 1000

// maxPermutations bounds the cartesian product of a node's children's
// candidate lists. original_source has no such bound (a node with several
// high-fan-in children could, in principle, multiply two Pareto fronts of
// 1000 each into a million combinations); this is a Go-side safety valve
// rather than a behavior ported from the original.
const maxPermutations = 4096

// Extractor runs the dynamic-programming extraction algorithm against one
// e-graph, memoizing each eclass's Pareto front of candidate expressions.
type Extractor struct {
	g       *egraph.EGraph[analysis.Value]
	cost    cost.Func
	best    map[int][]*dag.Expr
	visited map[string]bool
}

// New builds an Extractor. Any cost.Func is accepted, including Negative
// ones (see package doc).
func New(g *egraph.EGraph[analysis.Value], costFn cost.Func) *Extractor {
	return &Extractor{
		g:       g,
		cost:    costFn,
		best:    make(map[int][]*dag.Expr),
		visited: make(map[string]bool),
	}
}

// Extract returns the single cheapest expression rooted at root's class
// (the first entry of its Pareto front, which is always the minimum-cost
// one found) plus its total cost.
func (e *Extractor) Extract(root int) (*dag.Expr, float64, error) {
	root = e.g.Find(root)
	front := e.FindBest(root)
	if len(front) == 0 {
		return nil, 0, fmt.Errorf("dynprog: class %d has no finite-cost extraction", root)
	}
	return front[0], e.totalCost(front[0]), nil
}

// FindBest returns every equal-minimum-cost expression (up to
// maxParetoFront) rooted at eclass, computing and caching them on first
// call the way dyn_extractor.rs's find_best_expression does.
func (e *Extractor) FindBest(eclass int) []*dag.Expr {
	eclass = e.g.Find(eclass)
	if cached, ok := e.best[eclass]; ok {
		return cached
	}

	bestCost := math.Inf(1)

	for _, n := range e.g.Nodes(eclass) {
		if math.IsInf(e.cost.Local(n), 0) {
			continue
		}

		key := nodeKey(n)
		if e.visited[key] {
			continue
		}
		e.visited[key] = true

		children := n.Children()
		childCandidates := make([][]*dag.Expr, len(children))
		impossible := false
		for i, c := range children {
			cc := e.FindBest(c)
			if len(cc) == 0 {
				impossible = true
				break
			}
			childCandidates[i] = cc
		}
		if impossible {
			delete(e.visited, key)
			continue
		}

		for _, combo := range permutations(childCandidates) {
			expr := e.mergeAndAdd(n, combo)
			total := e.totalCost(expr)

			if total > bestCost {
				continue
			}
			if total < bestCost {
				bestCost = total
				e.best[eclass] = []*dag.Expr{expr}
			} else if len(e.best[eclass]) < maxParetoFront {
				e.best[eclass] = append(e.best[eclass], expr)
			}
		}

		delete(e.visited, key)
	}

	if _, ok := e.best[eclass]; !ok {
		e.best[eclass] = nil
	}
	return e.best[eclass]
}

// mergeAndAdd merges each child candidate expression into one shared
// builder (interning structurally-equal nodes, dag.Builder's equivalent of
// merge_expr/deep_equals), appends n on top with its children repointed at
// the merged roots, and finalizes.
func (e *Extractor) mergeAndAdd(n term.Node, combo []*dag.Expr) *dag.Expr {
	b := dag.NewBuilder()
	childRoots := make([]int, len(combo))
	for i, sub := range combo {
		remap := mergeInto(b, sub)
		childRoots[i] = remap[sub.RootIndex()]
	}

	clone := n.Clone()
	if len(childRoots) > 0 {
		clone.SetChildren(childRoots)
	}
	idx := b.Add(clone)
	return b.Build(idx)
}

// mergeInto appends every node of sub into b in order (sub is already
// topologically sorted, children before parents), returning sub's own
// indices remapped to b's indices. Builder.Add's structural-key interning
// collapses any node sub shares with material already in b, which is what
// gives this the same effect as merge_expr's deep_equals-based dedup.
func mergeInto(b *dag.Builder, sub *dag.Expr) []int {
	remap := make([]int, len(sub.Nodes))
	for i, n := range sub.Nodes {
		children := n.Children()
		clone := n.Clone()
		if len(children) > 0 {
			newChildren := make([]int, len(children))
			for j, c := range children {
				newChildren[j] = remap[c]
			}
			clone.SetChildren(newChildren)
		}
		remap[i] = b.Add(clone)
	}
	return remap
}

func (e *Extractor) totalCost(expr *dag.Expr) float64 {
	total := 0.0
	for _, n := range expr.Nodes {
		total += e.cost.Local(n)
	}
	return total
}

// nodeKey identifies an enode by operator/payload plus its (already
// canonical) child eclass ids, the Go equivalent of hashing the Rust
// enode value directly for the recursion-guard visited set.
func nodeKey(n term.Node) string {
	return fmt.Sprintf("%s/%v", n.Key(), n.Children())
}

// permutations returns the cartesian product of lists, choosing one entry
// from lists[0] combined with every permutation of the rest, mirroring
// get_permutations's recursive structure. Truncated at maxPermutations.
func permutations(lists [][]*dag.Expr) [][]*dag.Expr {
	if len(lists) == 0 {
		return [][]*dag.Expr{{}}
	}

	rest := permutations(lists[1:])
	var out [][]*dag.Expr
	for _, first := range lists[0] {
		for _, r := range rest {
			if len(out) >= maxPermutations {
				return out
			}
			combo := make([]*dag.Expr, 0, len(r)+1)
			combo = append(combo, first)
			combo = append(combo, r...)
			out = append(out, combo)
		}
	}
	return out
}
