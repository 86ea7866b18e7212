package rules

import (
	"fmt"

	"techmap/internal/analysis"
	"techmap/internal/egraph"
	"techmap/internal/term"
)

// instantiate builds pat as concrete term.Node(s) inside g, substituting
// bound variables with their class ids, and returns the resulting root
// class id. parentOp/childIdx disambiguate how a bare integer literal
// should be realized: the first child of a LUT pattern is a Program, a
// 0/1 literal anywhere else is a Const.
func instantiate(g *egraph.EGraph[analysis.Value], pat *pnode, subst Subst, parentOp string, childIdx int) (int, error) {
	if pat.isVar {
		id, ok := subst[pat.varName]
		if !ok {
			return 0, fmt.Errorf("rules: applier references unbound variable ?%s", pat.varName)
		}
		return id, nil
	}

	if pat.isLit {
		if parentOp == "LUT" && childIdx == 0 {
			return g.Add(&term.Program{Value: pat.litVal}), nil
		}
		return g.Add(&term.Const{Value: pat.litVal != 0}), nil
	}

	children := make([]int, len(pat.kids))
	for i, k := range pat.kids {
		id, err := instantiate(g, k, subst, pat.op, i)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}

	op, known := opNames[pat.op]
	if !known {
		// Not a reserved keyword: the token itself names a specific
		// library cell (e.g. "AND_X1"), the applier-side counterpart of
		// the named-Cell match in matchClass.
		return g.Add(&term.Cell{Name: pat.op, Kids: children}), nil
	}

	switch op {
	case term.OpLut:
		return g.Add(&term.Lut{Kids: children}), nil
	case term.OpCell:
		return g.Add(&term.Cell{Name: pat.op, Kids: children}), nil
	case term.OpBus:
		return g.Add(&term.Bus{Kids: children}), nil
	case term.OpReg:
		if len(children) != 1 {
			return 0, fmt.Errorf("rules: Reg applier expects exactly one child")
		}
		return g.Add(&term.Reg{D: children[0]}), nil
	case term.OpAnd, term.OpOr, term.OpXor, term.OpNor, term.OpMux, term.OpInv, term.OpNot:
		return g.Add(&term.Gate{GateOp: op, Kids: children}), nil
	default:
		return 0, fmt.Errorf("rules: operator %q cannot be instantiated by an applier", pat.op)
	}
}
