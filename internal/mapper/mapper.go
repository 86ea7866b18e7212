package mapper

import (
	"strconv"

	"techmap/internal/dag"
	"techmap/internal/errs"
	"techmap/internal/term"
)

// LogicMapping links a mapped term.Expr back to the netlist region it came
// from: roots (the driven nets being mapped, in order), and leaves (net
// identifier -> dag index, for every Var the mapper emitted).
type LogicMapping struct {
	Roots    []DrivenNet
	Leaves   map[string]int
	LeafNets map[string]DrivenNet
	Expr     *dag.Expr
}

// Mapper walks netlist regions into term DAGs per §4.2.
type Mapper struct {
	logic LogicFunc
}

// New builds a Mapper that uses logic to translate combinational drivers.
func New(logic LogicFunc) *Mapper {
	return &Mapper{logic: logic}
}

// BoundaryFilter classifies a net as a leaf (returns true) independent of
// whether it has a driver — used by register-to-register mode to stop at
// sequential boundaries.
type BoundaryFilter func(n DrivenNet) bool

// NotSequential is the register-to-register boundary filter: a net becomes
// a Var leaf if its driver (if any) is a sequential object.
func NotSequential(n DrivenNet) bool {
	drv, ok := n.GetDriver()
	return ok && drv.IsSequential()
}

// Map traverses the fanin cones of roots in reverse topological order,
// building one shared term DAG. If boundary is nil, primary inputs are the
// only leaves (full combinational-cone mode); a net that has no driver and
// is not a primary input is reported as an unmapped-net error.
func (m *Mapper) Map(roots []DrivenNet, boundary BoundaryFilter) (*LogicMapping, error) {
	b := dag.NewBuilder()
	memo := make(map[string]int)
	leaves := make(map[string]int)
	leafNets := make(map[string]DrivenNet)

	var visit func(n DrivenNet, ancestors map[string]bool) (int, error)
	visit = func(n DrivenNet, ancestors map[string]bool) (int, error) {
		id := n.GetIdentifier()
		if idx, ok := memo[id]; ok {
			return idx, nil
		}
		if ancestors[id] {
			return 0, errs.NewCycleError(id).
				WithSuggestion("insert a register to break the combinational loop").Build()
		}

		isLeaf := n.IsAnInput()
		if boundary != nil && boundary(n) {
			isLeaf = true
		}
		drv, hasDriver := n.GetDriver()
		if !isLeaf && !hasDriver {
			return 0, errs.NewUnmappedError(id, "net has no driver and is not a primary input").Build()
		}

		if isLeaf || !hasDriver {
			idx := b.Add(&term.Var{Name: id})
			leaves[id] = idx
			leafNets[id] = n
			memo[id] = idx
			return idx, nil
		}

		nextAncestors := make(map[string]bool, len(ancestors)+1)
		for k := range ancestors {
			nextAncestors[k] = true
		}
		nextAncestors[id] = true

		inputs := drv.GetInputPorts()
		if len(drv.GetOutputPorts()) > 1 {
			return 0, errs.NewUnmappedError(id, "multi-output cells are not yet supported").Build()
		}

		children := make([]int, 0, len(inputs)+1)
		cellType := n.GetInstanceType()
		if isLUT(cellType) {
			init, ok := drv.GetParameter("INIT")
			if !ok {
				return 0, errs.NewUnmappedError(id, "LUT cell is missing its INIT parameter").Build()
			}
			v, err := strconv.ParseUint(init, 0, 64)
			if err != nil {
				return 0, errs.NewParseError("invalid INIT value " + init).WithCause(err).Build()
			}
			children = append(children, b.Add(&term.Program{Value: v}))
		}
		for _, in := range inputs {
			childIdx, err := visit(in, nextAncestors)
			if err != nil {
				return 0, err
			}
			children = append(children, childIdx)
		}

		node, err := m.logic.Translate(drv, children)
		if err != nil {
			return 0, err
		}
		idx := b.Add(node)
		memo[id] = idx
		return idx, nil
	}

	rootIdx := make([]int, 0, len(roots))
	for _, r := range roots {
		idx, err := visit(r, map[string]bool{})
		if err != nil {
			return nil, err
		}
		rootIdx = append(rootIdx, idx)
	}

	var root int
	if len(roots) == 1 {
		root = rootIdx[0]
	} else {
		root = b.Add(&term.Bus{Kids: rootIdx})
	}

	return &LogicMapping{Roots: roots, Leaves: leaves, LeafNets: leafNets, Expr: b.Build(root)}, nil
}

// RegisterToRegister collects the standard register-to-register root set:
// every top-level output plus every input of every sequential object whose
// own driver is non-sequential, and maps with the NotSequential boundary so
// register outputs freeze as Var leaves (no implicit retiming).
func (m *Mapper) RegisterToRegister(topOutputs []DrivenNet, seqInputs []DrivenNet) (*LogicMapping, error) {
	roots := make([]DrivenNet, 0, len(topOutputs)+len(seqInputs))
	roots = append(roots, topOutputs...)
	for _, in := range seqInputs {
		if NotSequential(in) {
			continue // driven by another sequential object
		}
		roots = append(roots, in)
	}
	return m.Map(roots, NotSequential)
}

func isLUT(cellType string) bool {
	switch cellType {
	case "LUT1", "LUT2", "LUT3", "LUT4", "LUT5", "LUT6":
		return true
	default:
		return false
	}
}
