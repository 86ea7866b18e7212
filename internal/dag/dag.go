// Package dag implements the term DAG representation of §3: an ordered
// sequence of term.Node values whose children are indices into the same
// sequence, the last entry being the root. This is the on-the-wire shape a
// mapper produces and a re-materializer consumes, distinct from the
// congruence-closed in-memory form internal/egraph works with.
package dag

import (
	"fmt"

	"techmap/internal/term"
)

// Expr is an ordered term DAG. Invariants checked by Validate (Builder.Add
// does not check them): every child index of Nodes[i] is strictly less than
// i; a Bus node may only be Nodes[len(Nodes)-1]; a Program node may only
// appear as Nodes[i].Children()[0] where Nodes[i] is a Lut.
type Expr struct {
	Nodes []term.Node
}

// Root returns the last node of the sequence, the conventional root per §3.
func (e *Expr) Root() term.Node {
	if len(e.Nodes) == 0 {
		return nil
	}
	return e.Nodes[len(e.Nodes)-1]
}

// RootIndex returns the index of Root(), or -1 if Expr is empty.
func (e *Expr) RootIndex() int {
	if len(e.Nodes) == 0 {
		return -1
	}
	return len(e.Nodes) - 1
}

// Validate checks the §3 structural invariants over the whole sequence.
func (e *Expr) Validate() error {
	for i, n := range e.Nodes {
		for _, c := range n.Children() {
			if c < 0 || c >= i {
				return fmt.Errorf("dag: node %d (%s) has out-of-order child %d", i, n.Op(), c)
			}
		}
		if n.IsBus() && i != len(e.Nodes)-1 {
			return fmt.Errorf("dag: Bus node at %d is not the last node", i)
		}
		if n.Op() == term.OpProgram {
			if !programIsFirstChildOfLut(e.Nodes, i) {
				return fmt.Errorf("dag: Program node at %d is not the first child of a Lut", i)
			}
		}
	}
	return nil
}

func programIsFirstChildOfLut(nodes []term.Node, progIdx int) bool {
	for _, n := range nodes {
		if lut, ok := n.(*term.Lut); ok {
			if len(lut.Kids) > 0 && lut.Kids[0] == progIdx {
				return true
			}
		}
	}
	return false
}

// Builder incrementally constructs an Expr, interning structurally-equal
// leaf/internal nodes the way the teacher's ir.Builder interns SSA values
// as it lowers (internal/ir/builder.go): Add returns the existing index if
// an identical node (by Key() and children) was already appended, so a
// mapper never emits duplicate nodes for a shared subterm.
type Builder struct {
	nodes []term.Node
	index map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add appends n (deduplicating against structurally-identical existing
// nodes) and returns its index in the eventual Expr.
func (b *Builder) Add(n term.Node) int {
	key := structKey(n)
	if idx, ok := b.index[key]; ok {
		return idx
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.index[key] = idx
	return idx
}

// Build finalizes the Expr. root must be the index of the last added node,
// which becomes the root entry; Build does not reorder nodes and panics if
// root is any other index.
func (b *Builder) Build(root int) *Expr {
	if root == len(b.nodes)-1 {
		return &Expr{Nodes: append([]term.Node(nil), b.nodes...)}
	}
	// Root isn't last: append a Bus-free passthrough isn't valid for
	// non-Bus roots, so callers are expected to have added nodes in an
	// order where the intended root already is last. This is a
	// programmer error, not a runtime netlist condition.
	panic(fmt.Sprintf("dag: Builder.Build: root index %d is not the last added node (%d)", root, len(b.nodes)-1))
}

func structKey(n term.Node) string {
	key := n.Key()
	children := n.Children()
	if len(children) == 0 {
		return key
	}
	return fmt.Sprintf("%s/%v", key, children)
}

// GetLutCount returns the total number of Lut nodes in the expression.
func GetLutCount(e *Expr) int {
	count := 0
	for _, n := range e.Nodes {
		if n.IsLut() {
			count++
		}
	}
	return count
}

// GetLutCountK returns the number of Lut nodes with exactly k data inputs
// (fan-in), matching the boundary test in §8:
// get_lut_count_k((LUT 44234 s1 s0 b a), 4) == 1, (...,3) == 0.
func GetLutCountK(e *Expr, k int) int {
	count := 0
	for _, n := range e.Nodes {
		if lut, ok := n.(*term.Lut); ok && lut.K() == k {
			count++
		}
	}
	return count
}

// Depth returns the longest path from the root to a leaf, counting edges.
func Depth(e *Expr) int {
	if len(e.Nodes) == 0 {
		return 0
	}
	memo := make([]int, len(e.Nodes))
	for i := range memo {
		memo[i] = -1
	}
	var visit func(i int) int
	visit = func(i int) int {
		if memo[i] >= 0 {
			return memo[i]
		}
		children := e.Nodes[i].Children()
		if len(children) == 0 {
			memo[i] = 0
			return 0
		}
		best := 0
		for _, c := range children {
			if d := visit(c) + 1; d > best {
				best = d
			}
		}
		memo[i] = best
		return best
	}
	return visit(e.RootIndex())
}
