package remat

import (
	"fmt"

	"techmap/internal/term"
)

// CellLibraryNamer is the CellNamer for ASIC-mode re-materialization: the
// inverse of mapper.CellLogic, reading the library cell name directly off
// term.Cell and falling back to the VCC/GND/gate-primitive names shared
// with LutNamer.
type CellLibraryNamer struct{}

func (CellLibraryNamer) CellFor(n term.Node, progValue uint64, hasProgram bool) (string, map[string]string, error) {
	switch v := n.(type) {
	case *term.Cell:
		return v.Name, map[string]string{}, nil
	case *term.Const:
		if v.Value {
			return "VCC", map[string]string{}, nil
		}
		return "GND", map[string]string{}, nil
	case *term.Gate:
		return gateCellName(v.GateOp), map[string]string{}, nil
	}
	return "", nil, fmt.Errorf("remat: node kind %s has no ASIC cell mapping", n.Op())
}
