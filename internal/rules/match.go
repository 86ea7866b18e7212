package rules

import (
	"techmap/internal/analysis"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// Subst binds a pattern's variables to e-class ids.
type Subst map[string]int

// Match is one search hit: the e-class the pattern matched at, plus the
// variable bindings that made it match.
type Match struct {
	Class int
	Subst Subst
}

// search finds every (class, substitution) pair in g where pat matches the
// class's contents, per the classic e-matching approach: a pattern matches
// a class if any node in that class matches, recursing per-child and
// unifying variable bindings across the whole pattern.
func search(g *egraph.EGraph[analysis.Value], pat *pnode) []Match {
	var out []Match
	for _, classID := range g.Classes() {
		for _, subst := range matchClass(g, pat, classID, Subst{}, "", -1) {
			out = append(out, Match{Class: classID, Subst: subst})
		}
	}
	return out
}

// matchClass returns every way pat can match classID, extending env.
// parentOp/childIdx mirror instantiate's disambiguation in apply.go: the
// first child of a LUT pattern matches a Program literal, a 0/1 literal
// anywhere else matches a Const.
func matchClass(g *egraph.EGraph[analysis.Value], pat *pnode, classID int, env Subst, parentOp string, childIdx int) []Subst {
	classID = g.Find(classID)

	if pat.isVar {
		if bound, ok := env[pat.varName]; ok {
			if g.Find(bound) != classID {
				return nil
			}
			return []Subst{env}
		}
		next := cloneSubst(env)
		next[pat.varName] = classID
		return []Subst{next}
	}

	if pat.isLit {
		for _, n := range g.Nodes(classID) {
			if parentOp == "LUT" && childIdx == 0 {
				if v, ok := n.Int(); ok && v == pat.litVal {
					return []Subst{env}
				}
				continue
			}
			if c, ok := n.(*term.Const); ok && c.Value == (pat.litVal != 0) {
				return []Subst{env}
			}
		}
		return nil
	}

	wantOp, known := opNames[pat.op]
	var results []Subst
	for _, n := range g.Nodes(classID) {
		if known {
			if n.Op() != wantOp {
				continue
			}
		} else {
			// An operator token not in opNames names a specific library
			// cell (e.g. "AND_X1" from a cell-file expansion rule): it
			// matches a term.Cell carrying that exact name.
			cell, ok := n.(*term.Cell)
			if !ok || cell.Name != pat.op {
				continue
			}
		}
		children := n.Children()
		if len(children) != len(pat.kids) {
			continue
		}
		results = append(results, matchChildren(g, pat.kids, children, env, pat.op, 0)...)
	}
	return results
}

// matchChildren matches each pattern child against the corresponding node
// child in lockstep, threading the growing substitution through every
// position so repeated variables must agree. startIdx is the position of
// pats[0]/classes[0] among the parent's full child list.
func matchChildren(g *egraph.EGraph[analysis.Value], pats []*pnode, classes []int, env Subst, parentOp string, startIdx int) []Subst {
	if len(pats) == 0 {
		return []Subst{env}
	}
	var out []Subst
	for _, e1 := range matchClass(g, pats[0], classes[0], env, parentOp, startIdx) {
		out = append(out, matchChildren(g, pats[1:], classes[1:], e1, parentOp, startIdx+1)...)
	}
	return out
}

func cloneSubst(s Subst) Subst {
	out := make(Subst, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}
