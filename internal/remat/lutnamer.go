package remat

import (
	"fmt"
	"strconv"

	"techmap/internal/term"
)

// LutNamer is the CellNamer for FPGA-mode re-materialization: the inverse
// of mapper.LutLogic, turning Lut/Reg/Const/Gate nodes back into
// LUTk/FDRE/VCC/GND/gate-primitive cell instantiations.
type LutNamer struct{}

func (LutNamer) CellFor(n term.Node, progValue uint64, hasProgram bool) (string, map[string]string, error) {
	switch v := n.(type) {
	case *term.Lut:
		return "LUT" + strconv.Itoa(v.K()), map[string]string{}, nil
	case *term.Reg:
		return "FDRE", map[string]string{}, nil
	case *term.Const:
		if v.Value {
			return "VCC", map[string]string{}, nil
		}
		return "GND", map[string]string{}, nil
	case *term.Gate:
		return gateCellName(v.GateOp), map[string]string{}, nil
	}
	return "", nil, fmt.Errorf("remat: node kind %s has no LUT-mode cell mapping", n.Op())
}

// gateCellName maps a term.Op back to its §6.1 PrimitiveType gate name,
// shared by both CellNamer implementations.
func gateCellName(op term.Op) string {
	switch op {
	case term.OpAnd:
		return "AND"
	case term.OpOr:
		return "OR"
	case term.OpXor:
		return "XOR"
	case term.OpNor:
		return "NOR"
	case term.OpMux:
		return "MUX"
	case term.OpInv, term.OpNot:
		return "INV"
	default:
		return "UNKNOWN"
	}
}
