package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/term"
)

type logicTestObj struct {
	instType string
}

func (o *logicTestObj) IsSequential() bool                 { return o.instType == "FDRE" }
func (o *logicTestObj) GetConstant() (bool, bool)           { return false, false }
func (o *logicTestObj) GetInputPorts() []DrivenNet          { return nil }
func (o *logicTestObj) GetOutputPorts() []DrivenNet         { return nil }
func (o *logicTestObj) GetParameter(name string) (string, bool) { return "", false }
func (o *logicTestObj) SetParameter(name, value string)     {}
func (o *logicTestObj) InstanceType() string                { return o.instType }

func TestLutLogicTranslatesLutCell(t *testing.T) {
	n, err := LutLogic{}.Translate(&logicTestObj{instType: "LUT2"}, []int{0, 1, 2})
	require.NoError(t, err)
	lut, ok := n.(*term.Lut)
	require.True(t, ok)
	require.Equal(t, []int{0, 1, 2}, lut.Kids)
}

func TestLutLogicTranslatesRegAndConstants(t *testing.T) {
	reg, err := LutLogic{}.Translate(&logicTestObj{instType: "FDRE"}, []int{3})
	require.NoError(t, err)
	require.IsType(t, &term.Reg{}, reg)

	vcc, err := LutLogic{}.Translate(&logicTestObj{instType: "VCC"}, nil)
	require.NoError(t, err)
	require.Equal(t, &term.Const{Value: true}, vcc)

	gnd, err := LutLogic{}.Translate(&logicTestObj{instType: "GND"}, nil)
	require.NoError(t, err)
	require.Equal(t, &term.Const{Value: false}, gnd)
}

func TestLutLogicTranslatesGates(t *testing.T) {
	n, err := LutLogic{}.Translate(&logicTestObj{instType: "AND"}, []int{0, 1})
	require.NoError(t, err)
	gate, ok := n.(*term.Gate)
	require.True(t, ok)
	require.Equal(t, term.OpAnd, gate.GateOp)
}

func TestLutLogicRejectsUnknownCell(t *testing.T) {
	_, err := LutLogic{}.Translate(&logicTestObj{instType: "AND_X1"}, []int{0, 1})
	require.Error(t, err)
}

func TestCellLogicTranslatesNamedCellAndGates(t *testing.T) {
	n, err := CellLogic{}.Translate(&logicTestObj{instType: "AND_X1"}, []int{0, 1})
	require.NoError(t, err)
	cell, ok := n.(*term.Cell)
	require.True(t, ok)
	require.Equal(t, "AND_X1", cell.Name)

	gate, err := CellLogic{}.Translate(&logicTestObj{instType: "AND"}, []int{0, 1})
	require.NoError(t, err)
	require.IsType(t, &term.Gate{}, gate)

	vcc, err := CellLogic{}.Translate(&logicTestObj{instType: "VCC"}, nil)
	require.NoError(t, err)
	require.Equal(t, &term.Const{Value: true}, vcc)
}
