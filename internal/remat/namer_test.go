package remat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/term"
)

func TestLutNamerRoundTripsLutAndReg(t *testing.T) {
	cellType, _, err := LutNamer{}.CellFor(&term.Lut{Kids: []int{0, 1, 2}}, 8, true)
	require.NoError(t, err)
	require.Equal(t, "LUT2", cellType)

	cellType, _, err = LutNamer{}.CellFor(&term.Reg{D: 0}, 0, false)
	require.NoError(t, err)
	require.Equal(t, "FDRE", cellType)
}

func TestLutNamerRejectsCell(t *testing.T) {
	_, _, err := LutNamer{}.CellFor(&term.Cell{Name: "AND_X1"}, 0, false)
	require.Error(t, err)
}

func TestCellLibraryNamerRoundTripsCellAndGate(t *testing.T) {
	cellType, _, err := CellLibraryNamer{}.CellFor(&term.Cell{Name: "AND_X1", Kids: []int{0, 1}}, 0, false)
	require.NoError(t, err)
	require.Equal(t, "AND_X1", cellType)

	cellType, _, err = CellLibraryNamer{}.CellFor(&term.Gate{GateOp: term.OpInv, Kids: []int{0}}, 0, false)
	require.NoError(t, err)
	require.Equal(t, "INV", cellType)
}

func TestCellLibraryNamerRejectsLut(t *testing.T) {
	_, _, err := CellLibraryNamer{}.CellFor(&term.Lut{Kids: []int{0, 1}}, 0, true)
	require.Error(t, err)
}
