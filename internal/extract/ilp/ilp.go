// Package ilp implements the §4.6 ILP extractor as a SAT-based encoding,
// grounded on the OLM dependency resolver's solver package
// (operator-framework/operator-lifecycle-manager, pkg/.../resolver/solver):
// a logic.C circuit builds the node/class selection constraints the same
// way litMapping builds installable constraints, and the minimal-cost
// search reuses that package's exact "build a CardSort over the candidate
// literals, then linear-search the smallest satisfiable Leq(w) threshold"
// idiom from solver.solve.go, rather than reaching for true MIP support gini
// doesn't have.
//
// Weighted local costs are approximated by replicating each node's
// selection literal cost-unit times into the cardinality network (a
// pseudo-Boolean-via-unary-replication encoding); Negative-cost functions
// are rejected since a cardinality network only orders non-negative sums.
package ilp

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"techmap/internal/analysis"
	"techmap/internal/cost"
	"techmap/internal/dag"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// costScale converts a float64 local cost into integer cost-units for
// cardinality-network replication; costs are rounded to the nearest
// 1/costScale.
const costScale = 4

// maxReplication caps how many literal copies a single node contributes,
// so one absurdly expensive node can't blow up the cardinality network.
const maxReplication = 4096

// Solver is the pluggable SAT backend Extract drives; gini.New() satisfies
// it directly.
type Solver interface {
	inter.S
}

// Extractor builds and solves the node-selection ILP for one e-graph.
type Extractor struct {
	g    *egraph.EGraph[analysis.Value]
	cost cost.Func
}

// New returns an Extractor. costFn need not be GreedySafe (that's the
// point of an ILP extractor), but it must not be a Negative cost function,
// since this encoder's cardinality-network minimization only orders
// non-negative weighted sums.
func New(g *egraph.EGraph[analysis.Value], costFn cost.Func) (*Extractor, error) {
	if strings.HasPrefix(costFn.Name(), "Negative(") {
		return nil, fmt.Errorf("ilp: negative-cost functions are not supported by the cardinality-network encoder")
	}
	return &Extractor{g: g, cost: costFn}, nil
}

type nodeLit struct {
	class int
	node  term.Node
	lit   z.Lit
}

// Extract solves for the minimum-cost node selection rooted at root,
// returning the extracted expression, its cost, and whether the search
// proved optimality (false if timeout forced returning an incumbent).
func (e *Extractor) Extract(root int, timeout time.Duration) (*dag.Expr, float64, bool, error) {
	deadline := time.Now().Add(timeout)

	c := logic.NewCCap(len(e.g.Classes()))
	classLit := make(map[int]z.Lit)
	var nodeLits []nodeLit
	var weighted []z.Lit

	for _, classID := range e.g.Classes() {
		var xs []z.Lit
		for _, n := range e.g.Nodes(classID) {
			x := c.Lit()
			nodeLits = append(nodeLits, nodeLit{class: classID, node: n, lit: x})
			xs = append(xs, x)

			localCost := e.cost.Local(n)
			if units, finite := costUnits(localCost); finite {
				for i := 0; i < units; i++ {
					weighted = append(weighted, x)
				}
			} else {
				c.Add(x.Not())
			}
		}
		// At most one node selected per class.
		for i := 0; i < len(xs); i++ {
			for j := i + 1; j < len(xs); j++ {
				c.Add(xs[i].Not(), xs[j].Not())
			}
		}
		classLit[classID] = c.Ors(xs...)
	}

	for _, nl := range nodeLits {
		for _, childClass := range childClasses(e.g, nl.node) {
			cl, ok := classLit[childClass]
			if !ok {
				return nil, 0, false, fmt.Errorf("ilp: node %s references unknown class %d", nl.node.Op(), childClass)
			}
			c.Add(nl.lit.Not(), cl)
		}
	}

	rootClass := e.g.Find(root)
	rootLit, ok := classLit[rootClass]
	if !ok {
		return nil, 0, false, fmt.Errorf("ilp: root class %d has no node lits", rootClass)
	}

	var sat Solver = gini.New()
	c.ToCnf(sat)
	sat.Assume(rootLit)

	if outcome := sat.Solve(); outcome != 1 {
		return nil, 0, false, fmt.Errorf("ilp: no feasible node selection satisfies the root/child constraints")
	}

	exact := true
	if len(weighted) > 0 {
		cs := c.CardSort(weighted)
		c.ToCnf(sat)
		found := false
		for w := 0; w <= cs.N(); w++ {
			if time.Now().After(deadline) {
				exact = false
				break
			}
			sat.Assume(rootLit)
			sat.Assume(cs.Leq(w))
			if sat.Solve() == 1 {
				found = true
				break
			}
		}
		if !found && exact {
			return nil, 0, false, fmt.Errorf("ilp: cardinality search found no satisfiable threshold")
		}
	}

	return e.reconstruct(sat, nodeLits, rootClass, exact)
}

// costUnits rounds a local cost into cardinality-network replication
// count; math.Inf(1) (a forbidden node, e.g. a bare gate under a LUT-only
// cost function) reports finite=false.
func costUnits(localCost float64) (units int, finite bool) {
	if localCost > 1e18 {
		return 0, false
	}
	if localCost < 0 {
		localCost = 0
	}
	units = int(localCost * costScale)
	if units < 1 {
		units = 1
	}
	if units > maxReplication {
		units = maxReplication
	}
	return units, true
}

func childClasses(g *egraph.EGraph[analysis.Value], n term.Node) []int {
	out := make([]int, 0, len(n.Children()))
	for _, c := range n.Children() {
		out = append(out, g.Find(c))
	}
	return out
}

func (e *Extractor) reconstruct(sat Solver, nodeLits []nodeLit, rootClass int, exact bool) (*dag.Expr, float64, bool, error) {
	chosen := make(map[int]term.Node)
	for _, nl := range nodeLits {
		if sat.Value(nl.lit) {
			chosen[nl.class] = nl.node
		}
	}

	b := dag.NewBuilder()
	built := make(map[int]int)
	total := 0.0

	var build func(classID int) (int, error)
	build = func(classID int) (int, error) {
		classID = e.g.Find(classID)
		if idx, ok := built[classID]; ok {
			return idx, nil
		}
		n, ok := chosen[classID]
		if !ok {
			return 0, fmt.Errorf("ilp: class %d has no selected node in the SAT model", classID)
		}
		total += e.cost.Local(n)

		childIdx := make([]int, len(n.Children()))
		for i, childClass := range n.Children() {
			idx, err := build(childClass)
			if err != nil {
				return 0, err
			}
			childIdx[i] = idx
		}
		clone := n.Clone()
		clone.SetChildren(childIdx)
		idx := b.Add(clone)
		built[classID] = idx
		return idx, nil
	}

	rootIdx, err := build(rootClass)
	if err != nil {
		return nil, 0, false, err
	}
	return b.Build(rootIdx), total, exact, nil
}
