package netlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/mapper"
)

const sampleJSON = `{
  "inputs": ["a", "b"],
  "gates": [
    {"id": "g0", "type": "LUT2", "params": {"INIT": "8"}, "inputs": ["a", "b"]}
  ],
  "outputs": ["g0"]
}`

func TestLoadParsesInputsGatesAndOutputs(t *testing.T) {
	nl, err := Load(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	roots := nl.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, "g0", roots[0].GetIdentifier())
	require.True(t, roots[0].IsTopLevelOutput())

	drv, ok := roots[0].GetDriver()
	require.True(t, ok)
	require.Equal(t, "LUT2", drv.InstanceType())
	init, ok := drv.GetParameter("INIT")
	require.True(t, ok)
	require.Equal(t, "8", init)

	ins := drv.GetInputPorts()
	require.Len(t, ins, 2)
	require.Equal(t, "a", ins[0].GetIdentifier())
	require.True(t, ins[0].IsAnInput())
}

func TestLoadRejectsForwardReferences(t *testing.T) {
	bad := `{"inputs": [], "gates": [{"id": "g0", "type": "LUT1", "inputs": ["a"]}], "outputs": []}`
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestSaveRoundTrips(t *testing.T) {
	nl, err := Load(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, nl.Save(&buf))

	reloaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, nl.Roots()[0].GetIdentifier(), reloaded.Roots()[0].GetIdentifier())
}

func TestSequentialInputsCollectsRegisterDataPins(t *testing.T) {
	src := `{
	  "inputs": ["a", "clk"],
	  "gates": [
	    {"id": "q", "type": "FDRE", "inputs": ["a"]},
	    {"id": "g0", "type": "LUT1", "params": {"INIT": "1"}, "inputs": ["q"]}
	  ],
	  "outputs": ["g0"]
	}`
	nl, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	seqIns := nl.SequentialInputs()
	require.Len(t, seqIns, 1)
	require.Equal(t, "a", seqIns[0].GetIdentifier())
}

func TestInsertGateReplaceUsesCleanAndRename(t *testing.T) {
	nl, err := Load(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	oldRoot := nl.Roots()[0] // "g0", a LUT2 over a,b
	aNet := nl.nets["a"]

	newRootObj, err := nl.InsertGate("LUT1", map[string]string{"INIT": "2"}, []mapper.DrivenNet{aNet})
	require.NoError(t, err)
	newRoot := newRootObj.GetOutputPorts()[0]

	require.NoError(t, nl.ReplaceNetUses(oldRoot, newRoot))
	require.False(t, oldRoot.IsTopLevelOutput())
	require.True(t, newRoot.IsTopLevelOutput())

	require.NoError(t, nl.Clean())
	require.Equal(t, []mapper.DrivenNet{newRoot}, nl.Roots())

	require.NoError(t, nl.RenameNets(map[string]string{newRoot.GetIdentifier(): "y"}))
	require.Equal(t, "y", nl.Roots()[0].GetIdentifier())

	require.NoError(t, nl.Verify())
}
