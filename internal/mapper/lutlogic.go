package mapper

import (
	"fmt"
	"strings"

	"techmap/internal/term"
)

// LutLogic is the §6.1 LogicFunc for FPGA mode: it translates LUT1..LUT6,
// FDRE, VCC/GND, and the Boolean primitive gates into LutLang term.Node
// values. It is the inverse of internal/remat's LutNamer.
type LutLogic struct{}

func (LutLogic) Translate(obj Object, children []int) (term.Node, error) {
	cellType := obj.InstanceType()
	switch {
	case isLUT(cellType):
		return &term.Lut{Kids: children}, nil
	case cellType == "FDRE":
		if len(children) != 1 {
			return nil, fmt.Errorf("mapper: FDRE expects 1 input, got %d", len(children))
		}
		return &term.Reg{D: children[0]}, nil
	case cellType == "VCC":
		return &term.Const{Value: true}, nil
	case cellType == "GND":
		return &term.Const{Value: false}, nil
	}
	if op, ok := gateOp(cellType); ok {
		return &term.Gate{GateOp: op, Kids: children}, nil
	}
	return nil, fmt.Errorf("mapper: %q is not a recognized LUT-mode primitive", cellType)
}

// gateOp maps a §6.1 PrimitiveType gate name to its term.Op, shared by both
// LogicFunc implementations since AND/OR/XOR/NOR/MUX/INV/NOT are legal
// transient nodes in both languages.
func gateOp(cellType string) (term.Op, bool) {
	switch strings.ToUpper(cellType) {
	case "AND":
		return term.OpAnd, true
	case "OR":
		return term.OpOr, true
	case "XOR":
		return term.OpXor, true
	case "NOR":
		return term.OpNor, true
	case "MUX":
		return term.OpMux, true
	case "INV", "NOT":
		return term.OpInv, true
	}
	return term.Op(0), false
}
