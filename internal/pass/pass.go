// Package pass defines the "run a named pass over a netlist" abstraction
// shared by cmd/lutmap and cmd/cellmap, grounded on
// original_source/src/pass.rs's Pass trait and its PrintVerilog dummy pass.
package pass

import (
	"fmt"

	"techmap/internal/mapper"
)

// Pass runs some operation over a netlist and reports what it did as text,
// the way the original's Pass::run does.
type Pass interface {
	Run(netlist mapper.Netlist) (string, error)
}

// RunVerified calls netlist.Verify() before running p, the Go-native
// equivalent of the original's Pass::run_verified default method.
func RunVerified(p Pass, netlist mapper.Netlist) (string, error) {
	if err := netlist.Verify(); err != nil {
		return "", fmt.Errorf("pass: pre-run verification failed: %w", err)
	}
	return p.Run(netlist)
}

// PrintNetlist is the dummy pass that just renders the netlist, mirroring
// PrintVerilog: useful as a smoke test that a netlist loaded and Pass
// wiring works end to end before a real mapping pass runs.
type PrintNetlist struct{}

func (PrintNetlist) Run(netlist mapper.Netlist) (string, error) {
	if s, ok := netlist.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return "", fmt.Errorf("pass: netlist does not implement String()")
}
