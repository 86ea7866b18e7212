package mapper

import "techmap/internal/term"

// CellLogic is the §6.1 LogicFunc for ASIC mode: it translates VCC/GND, the
// Boolean primitive gates, and any other named cell (a library cell of the
// form `<NAME>_X<SIZE>`, or any other instance type) into CellLang
// term.Node values. It is the inverse of internal/remat's
// CellLibraryNamer.
type CellLogic struct{}

func (CellLogic) Translate(obj Object, children []int) (term.Node, error) {
	cellType := obj.InstanceType()
	switch cellType {
	case "VCC":
		return &term.Const{Value: true}, nil
	case "GND":
		return &term.Const{Value: false}, nil
	}
	if op, ok := gateOp(cellType); ok {
		return &term.Gate{GateOp: op, Kids: children}, nil
	}
	return &term.Cell{Name: cellType, Kids: children}, nil
}
