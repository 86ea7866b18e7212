// Package remat implements §4.7: rewriting a (possibly saturation-rewritten)
// term.Expr back into real netlist objects through the same Netlist
// capability interface internal/mapper reads from, then swapping the new
// roots in for the old ones. Grounded on the teacher's lowering pass
// (internal/ir/builder.go builds IR from an AST bottom-up the same way this
// package instantiates cells from a DAG bottom-up) and on §9's "Ownership
// of the netlist during rewrite" for the transactional root-swap sequence.
package remat

import (
	"fmt"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"techmap/internal/dag"
	"techmap/internal/mapper"
	"techmap/internal/term"
)

// CellNamer turns a term.Node into the (cellType, params) pair InsertGate
// needs, the inverse of mapper.LogicFunc.Translate. Supplied per target
// language (LUT vs ASIC cell) the same way LogicFunc is.
type CellNamer interface {
	CellFor(n term.Node, progValue uint64, hasProgram bool) (cellType string, params map[string]string, err error)
}

// Materialize instantiates expr into netlist as new Objects, rooted at the
// same net identifiers recorded in mapping.Leaves for its Var leaves, and
// returns the new root DrivenNets in root order (bus-expanded if expr's
// root is a Bus).
func Materialize(netlist mapper.Netlist, mapping *mapper.LogicMapping, expr *dag.Expr, namer CellNamer) ([]mapper.DrivenNet, error) {
	if err := checkArity(mapping, expr); err != nil {
		return nil, err
	}

	built := make(map[int]mapper.DrivenNet, len(expr.Nodes))

	for i, n := range expr.Nodes {
		if _, ok := built[i]; ok {
			continue
		}
		switch t := n.(type) {
		case *term.Var:
			net, ok := mapping.LeafNets[t.Name]
			if !ok {
				return nil, pkgerrors.Errorf("remat: no original net for leaf %q", t.Name)
			}
			built[i] = net
		case *term.Program:
			// Program nodes aren't instantiated directly; they're read by
			// the owning Lut case below via progValueOf.
		case *term.Bus:
			// handled after the loop, once every child is built
		default:
			obj, err := instantiate(netlist, expr, i, n, built, namer)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "remat: instantiating node %d (%s)", i, n.Op())
			}
			outs := obj.GetOutputPorts()
			if len(outs) != 1 {
				return nil, pkgerrors.Errorf("remat: instantiated cell for node %d has %d outputs, want 1", i, len(outs))
			}
			built[i] = outs[0]
		}
	}

	root := expr.Root()
	if bus, ok := root.(*term.Bus); ok {
		roots := make([]mapper.DrivenNet, len(bus.Kids))
		for i, k := range bus.Kids {
			net, ok := built[k]
			if !ok {
				return nil, pkgerrors.Errorf("remat: Bus member %d was never built", k)
			}
			roots[i] = net
		}
		return roots, nil
	}

	net, ok := built[expr.RootIndex()]
	if !ok {
		return nil, pkgerrors.Errorf("remat: root was never built")
	}
	return []mapper.DrivenNet{net}, nil
}

func instantiate(netlist mapper.Netlist, expr *dag.Expr, idx int, n term.Node, built map[int]mapper.DrivenNet, namer CellNamer) (mapper.Object, error) {
	var progValue uint64
	hasProgram := false
	kids := n.Children()
	dataKids := kids
	if lut, ok := n.(*term.Lut); ok {
		progNode := expr.Nodes[lut.Kids[0]]
		prog, ok := progNode.(*term.Program)
		if !ok {
			return nil, fmt.Errorf("Lut's first child is not a Program")
		}
		progValue = prog.Value
		hasProgram = true
		dataKids = lut.Kids[1:]
	}

	inputs := make([]mapper.DrivenNet, 0, len(dataKids))
	for _, k := range dataKids {
		net, ok := built[k]
		if !ok {
			return nil, fmt.Errorf("child %d of node %d not yet built (not in topological order)", k, idx)
		}
		inputs = append(inputs, net)
	}

	cellType, params, err := namer.CellFor(n, progValue, hasProgram)
	if err != nil {
		return nil, err
	}
	if hasProgram {
		if params == nil {
			params = make(map[string]string)
		}
		params["INIT"] = strconv.FormatUint(progValue, 10)
	}

	return netlist.InsertGate(cellType, params, inputs)
}

func checkArity(mapping *mapper.LogicMapping, expr *dag.Expr) error {
	oldIsBus := len(mapping.Roots) > 1
	newIsBus := expr.Root().IsBus()
	if oldIsBus != newIsBus {
		return pkgerrors.Errorf("remat: root arity mismatch: old mapping has %d roots, new expression is bus=%v", len(mapping.Roots), newIsBus)
	}
	if oldIsBus {
		bus := expr.Root().(*term.Bus)
		if len(bus.Kids) != len(mapping.Roots) {
			return pkgerrors.Errorf("remat: bus width mismatch: old %d, new %d", len(mapping.Roots), len(bus.Kids))
		}
	}
	return nil
}

// Rewrite performs the full §9 transactional sequence: materialize the new
// roots, replace_net_uses for each old/new root pair, drop the mapping,
// then clean and rename_nets. It is not rollback-safe (per §9): on partial
// failure the netlist is left in whatever intermediate state the failing
// step produced.
func Rewrite(netlist mapper.Netlist, mapping *mapper.LogicMapping, expr *dag.Expr, namer CellNamer, outputSuffix string, renames map[string]string) error {
	newRoots, err := Materialize(netlist, mapping, expr, namer)
	if err != nil {
		return pkgerrors.Wrap(err, "remat: materialization failed")
	}
	if len(newRoots) != len(mapping.Roots) {
		return pkgerrors.Errorf("remat: materialized %d roots, expected %d", len(newRoots), len(mapping.Roots))
	}

	for i, oldRoot := range mapping.Roots {
		if oldRoot.IsTopLevelOutput() {
			renamed := oldRoot.GetIdentifier() + outputSuffix
			if renames == nil {
				renames = make(map[string]string)
			}
			renames[oldRoot.GetIdentifier()] = renamed
		}
		if err := netlist.ReplaceNetUses(oldRoot, newRoots[i]); err != nil {
			return pkgerrors.Wrapf(err, "remat: replacing uses of root %d (%s)", i, oldRoot.GetIdentifier())
		}
	}

	if err := netlist.Clean(); err != nil {
		return pkgerrors.Wrap(err, "remat: dead-code cleanup failed")
	}
	if len(renames) > 0 {
		if err := netlist.RenameNets(renames); err != nil {
			return pkgerrors.Wrap(err, "remat: renaming nets failed")
		}
	}
	return nil
}
