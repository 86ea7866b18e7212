package pass

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"techmap/internal/mapper"
)

type fakeNetlist struct {
	verifyErr error
	label     string
}

func (f *fakeNetlist) InsertGate(string, map[string]string, []mapper.DrivenNet) (mapper.Object, error) {
	return nil, nil
}
func (f *fakeNetlist) ReplaceNetUses(mapper.DrivenNet, mapper.DrivenNet) error { return nil }
func (f *fakeNetlist) Clean() error                                           { return nil }
func (f *fakeNetlist) RenameNets(map[string]string) error                     { return nil }
func (f *fakeNetlist) Verify() error                                          { return f.verifyErr }
func (f *fakeNetlist) String() string                                        { return f.label }

func TestPrintNetlistRendersString(t *testing.T) {
	nl := &fakeNetlist{label: "netlist-contents"}
	out, err := PrintNetlist{}.Run(nl)
	require.NoError(t, err)
	require.Equal(t, "netlist-contents", out)
}

func TestRunVerifiedFailsWhenVerifyErrors(t *testing.T) {
	nl := &fakeNetlist{verifyErr: fmt.Errorf("dangling net")}
	_, err := RunVerified(PrintNetlist{}, nl)
	require.Error(t, err)
}

func TestRunVerifiedRunsPassWhenVerifyPasses(t *testing.T) {
	nl := &fakeNetlist{label: "ok"}
	out, err := RunVerified(PrintNetlist{}, nl)
	require.NoError(t, err)
	require.Equal(t, "ok", out)
}
