// Package egraph is a small, generic (Go 1.24 generics) egg-style e-graph
// engine implementing §4.3: union-find over e-classes, congruence closure,
// a pluggable per-class Analysis lattice, and a rebuild step that restores
// congruence and propagates analyses after a batch of rule applications.
//
// No e-graph library exists anywhere in the retrieved corpus (the
// original_source project depends on Rust's egg, which has no Go
// equivalent to adopt), so this package is hand-written directly against
// the spec's algorithmic description rather than ported from a library.
package egraph

import (
	"fmt"

	"github.com/segmentio/ksuid"

	"techmap/internal/term"
)

// Analysis is the per-class lattice described in §4.3: Make derives a
// fresh class's initial value from one of its member nodes (recursing into
// already-known child values via the EGraph), Join combines two classes'
// values when they merge (returning an error on a genuine conflict, e.g.
// two different constants), and Modify may add further nodes to a class
// once its analysis value pins down a canonical form (e.g. materializing a
// Const node into a class an analysis has proven constant).
type Analysis[V any] interface {
	Make(g *EGraph[V], n term.Node) V
	Join(a, b V) (V, error)
	Modify(g *EGraph[V], class int)
}

type parentEdge struct {
	node  term.Node
	class int
}

type eclass[V any] struct {
	id      int
	nodes   []term.Node
	parents []parentEdge
	data    V
}

// unionReason is one link of the explanation forest: the parent-pointer
// union-find annotation recording, for a class that was merged away, which
// surviving class it joined and which rule justified the merge.
type unionReason struct {
	parent int
	rule   string
}

// EGraph is the engine. It is not safe for concurrent use: §4.5 specifies a
// single-threaded cooperative driver, so no internal locking is attempted.
type EGraph[V any] struct {
	lang     term.Language
	analysis Analysis[V]
	uf       *unionFind
	classes  map[int]*eclass[V]
	memo     map[string]int
	dirty    []int
	RunID    string

	explain bool
	reasons map[int]unionReason
}

// New creates an empty e-graph over the given language and analysis,
// stamped with a sortable ksuid run id in RunID; graph dumps and driver
// logs do not include it.
func New[V any](lang term.Language, analysis Analysis[V]) *EGraph[V] {
	return &EGraph[V]{
		lang:     lang,
		analysis: analysis,
		uf:       newUnionFind(),
		classes:  make(map[int]*eclass[V]),
		memo:     make(map[string]int),
		RunID:    ksuid.New().String(),
	}
}

// Find returns the canonical class id for id.
func (g *EGraph[V]) Find(id int) int {
	return g.uf.find(id)
}

// Data returns the current analysis value of id's class.
func (g *EGraph[V]) Data(id int) V {
	return g.classes[g.uf.find(id)].data
}

// Nodes returns the e-nodes currently recorded in id's class. The slice is
// owned by the e-graph; callers must not mutate it.
func (g *EGraph[V]) Nodes(id int) []term.Node {
	return g.classes[g.uf.find(id)].nodes
}

// Classes returns every currently-live canonical class id.
func (g *EGraph[V]) Classes() []int {
	out := make([]int, 0, len(g.classes))
	for id := range g.classes {
		out = append(out, id)
	}
	return out
}

func canonicalKey(n term.Node, find func(int) int) string {
	children := n.Children()
	if len(children) == 0 {
		return n.Key()
	}
	canon := make([]int, len(children))
	for i, c := range children {
		canon[i] = find(c)
	}
	return fmt.Sprintf("%s/%v", n.Key(), canon)
}

func canonicalize(n term.Node, find func(int) int) term.Node {
	children := n.Children()
	if len(children) == 0 {
		return n
	}
	clone := n.Clone()
	canon := make([]int, len(children))
	for i, c := range children {
		canon[i] = find(c)
	}
	clone.SetChildren(canon)
	return clone
}

// Add inserts an e-node, performing congruence lookup against already
// canonical children: if a structurally identical node (same Key() and
// per-child canonical class) already exists, its class id is returned
// unchanged rather than creating a duplicate class.
func (g *EGraph[V]) Add(n term.Node) int {
	n = canonicalize(n, g.uf.find)
	key := canonicalKey(n, g.uf.find)
	if id, ok := g.memo[key]; ok {
		return g.uf.find(id)
	}

	id := g.uf.makeSet()
	cls := &eclass[V]{id: id, nodes: []term.Node{n}}
	for _, c := range n.Children() {
		root := g.uf.find(c)
		g.classes[root].parents = append(g.classes[root].parents, parentEdge{node: n, class: id})
	}
	cls.data = g.analysis.Make(g, n)
	g.classes[id] = cls
	g.memo[key] = id
	g.analysis.Modify(g, id)
	return id
}

// EnableExplain turns on parent-pointer explanation tracking: every
// subsequent Union records which rule (if any) justified the merge, so
// Explain can later walk the chain back from a class to the representative
// it was folded into.
func (g *EGraph[V]) EnableExplain() {
	g.explain = true
	if g.reasons == nil {
		g.reasons = make(map[int]unionReason)
	}
}

// Union merges the classes containing a and b, joining their analyses. It
// returns the surviving class id, or an error if the analysis Join reports
// a conflict (e.g. two disagreeing constants per §4.3's invariant (iii)).
// rule names the rewrite rule that produced this merge, if any; callers
// that merge for structural reasons (congruence repair, analysis-driven
// folding) omit it.
func (g *EGraph[V]) Union(a, b int, rule ...string) (int, error) {
	ra, rb := g.uf.find(a), g.uf.find(b)
	if ra == rb {
		return ra, nil
	}
	ca, cb := g.classes[ra], g.classes[rb]

	joined, err := g.analysis.Join(ca.data, cb.data)
	if err != nil {
		return 0, fmt.Errorf("egraph: conflict merging class %d and %d: %w", ra, rb, err)
	}

	survivor := g.uf.union(ra, rb)
	loser := ra
	if survivor == ra {
		loser = rb
	}
	winner := g.classes[survivor]
	loserCls := g.classes[loser]

	if g.explain {
		reason := "congruence"
		if len(rule) > 0 && rule[0] != "" {
			reason = rule[0]
		}
		g.reasons[loser] = unionReason{parent: survivor, rule: reason}
	}

	winner.nodes = append(winner.nodes, loserCls.nodes...)
	winner.parents = append(winner.parents, loserCls.parents...)
	winner.data = joined
	delete(g.classes, loser)

	g.dirty = append(g.dirty, survivor)
	g.analysis.Modify(g, survivor)
	return survivor, nil
}

// Explain returns the chain of rule names that justify why id now belongs
// to its canonical class, walking the parent-pointer forest EnableExplain
// records from id up to its representative. It returns nil if id is
// already canonical or explanation tracking was never enabled.
func (g *EGraph[V]) Explain(id int) []string {
	var chain []string
	for {
		r, ok := g.reasons[id]
		if !ok {
			return chain
		}
		chain = append(chain, r.rule)
		id = r.parent
	}
}

// Rebuild restores the congruence invariant after a batch of unions: for
// every pair of nodes sharing an operator and per-child canonical class,
// their owning classes are merged, and the process repeats (new merges can
// cascade into further congruences) until no class is left dirty. This is
// the classic egg "deferred rebuilding" algorithm referenced in §4.3.
func (g *EGraph[V]) Rebuild() error {
	for len(g.dirty) > 0 {
		todoSet := make(map[int]bool, len(g.dirty))
		for _, id := range g.dirty {
			todoSet[g.uf.find(id)] = true
		}
		g.dirty = nil
		for id := range todoSet {
			if err := g.repair(g.uf.find(id)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *EGraph[V]) repair(id int) error {
	cls, ok := g.classes[id]
	if !ok {
		return nil // id was itself merged away by an earlier repair in this pass
	}
	oldParents := cls.parents
	cls.parents = nil

	type resolved struct {
		node  term.Node
		class int
	}
	newParents := make(map[string]resolved, len(oldParents))
	order := make([]string, 0, len(oldParents))
	for _, p := range oldParents {
		canon := canonicalize(p.node, g.uf.find)
		key := canonicalKey(canon, g.uf.find)
		g.memo[key] = g.uf.find(p.class)

		if existing, ok := newParents[key]; ok {
			if _, err := g.Union(existing.class, p.class); err != nil {
				return err
			}
		} else {
			newParents[key] = resolved{node: canon, class: p.class}
			order = append(order, key)
		}
	}

	id = g.uf.find(id)
	cls, ok = g.classes[id]
	if !ok {
		return nil
	}
	for _, key := range order {
		r := newParents[key]
		cls.parents = append(cls.parents, parentEdge{node: r.node, class: g.uf.find(r.class)})
	}
	g.analysis.Modify(g, id)
	return nil
}
