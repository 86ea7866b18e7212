// Package netlist is a concrete, JSON-round-trippable implementation of
// mapper.Netlist/mapper.Object/mapper.DrivenNet: a flat collection of named
// nets, each either a primary input or driven by exactly one named gate.
//
// §1/§6.1 treat "the netlist" as an external collaborator the core consumes
// through a capability interface, deliberately out of the core's own scope.
// This package is the minimal concrete stand-in for that collaborator —
// just enough of a gate-level netlist representation for cmd/lutmap and
// cmd/cellmap to have a real file format to read and write — not a
// Verilog/structural-HDL front end.
package netlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"techmap/internal/mapper"
)

// gateSpec is one gate's on-disk shape: its own net name ("id"), its
// instance/cell type, any parameters (e.g. LUT "INIT"), and the net names
// of its inputs. Gates must appear after every net they read from (primary
// inputs or earlier gates) — the format is expected pre-sorted
// topologically, mirroring how a real structural netlist format is emitted.
type gateSpec struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
	Inputs []string          `json:"inputs"`
}

type fileFormat struct {
	Inputs  []string   `json:"inputs"`
	Gates   []gateSpec `json:"gates"`
	Outputs []string   `json:"outputs"`
}

// Netlist holds every net by name, in insertion order, plus the current set
// of top-level output net names.
type Netlist struct {
	nets        map[string]*net
	order       []string
	outputs     map[string]bool
	outputOrder []string
	nextID      int
}

type net struct {
	id       string
	input    bool
	topLevel bool
	gate     *gate // nil for a primary input
}

type gate struct {
	cellType string
	params   map[string]string
	inputs   []*net
	out      *net
}

// New returns an empty Netlist.
func New() *Netlist {
	return &Netlist{
		nets:    make(map[string]*net),
		outputs: make(map[string]bool),
	}
}

// Load parses the JSON gate-level format described in the package doc.
func Load(r io.Reader) (*Netlist, error) {
	var ff fileFormat
	if err := json.NewDecoder(r).Decode(&ff); err != nil {
		return nil, fmt.Errorf("netlist: decoding input: %w", err)
	}

	nl := New()
	for _, name := range ff.Inputs {
		if _, exists := nl.nets[name]; exists {
			return nil, fmt.Errorf("netlist: duplicate net name %q", name)
		}
		n := &net{id: name, input: true}
		nl.nets[name] = n
		nl.order = append(nl.order, name)
	}

	for _, gs := range ff.Gates {
		if _, exists := nl.nets[gs.ID]; exists {
			return nil, fmt.Errorf("netlist: duplicate net name %q", gs.ID)
		}
		ins := make([]*net, len(gs.Inputs))
		for i, inName := range gs.Inputs {
			in, ok := nl.nets[inName]
			if !ok {
				return nil, fmt.Errorf("netlist: gate %q references undefined net %q (inputs must be defined earlier)", gs.ID, inName)
			}
			ins[i] = in
		}
		g := &gate{cellType: gs.Type, params: gs.Params, inputs: ins}
		out := &net{id: gs.ID, gate: g}
		g.out = out
		nl.nets[gs.ID] = out
		nl.order = append(nl.order, gs.ID)
	}

	for _, name := range ff.Outputs {
		n, ok := nl.nets[name]
		if !ok {
			return nil, fmt.Errorf("netlist: output %q is not a defined net", name)
		}
		n.topLevel = true
		nl.outputs[name] = true
		nl.outputOrder = append(nl.outputOrder, name)
	}

	return nl, nil
}

// Save serializes the current state back to the JSON gate-level format.
func (nl *Netlist) Save(w io.Writer) error {
	var ff fileFormat
	for _, id := range nl.order {
		n := nl.nets[id]
		if n.input {
			ff.Inputs = append(ff.Inputs, id)
			continue
		}
		ins := make([]string, len(n.gate.inputs))
		for i, in := range n.gate.inputs {
			ins[i] = in.id
		}
		ff.Gates = append(ff.Gates, gateSpec{ID: id, Type: n.gate.cellType, Params: n.gate.params, Inputs: ins})
	}
	ff.Outputs = append(ff.Outputs, nl.outputOrder...)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ff); err != nil {
		return fmt.Errorf("netlist: encoding output: %w", err)
	}
	return nil
}

// String renders the netlist in its JSON gate-level format, satisfying
// fmt.Stringer so pass.PrintNetlist can run against it directly.
func (nl *Netlist) String() string {
	var buf bytes.Buffer
	if err := nl.Save(&buf); err != nil {
		return fmt.Sprintf("netlist: <unprintable: %s>", err)
	}
	return buf.String()
}

// Roots returns the current top-level output nets, in the order they were
// declared (or last renamed into).
func (nl *Netlist) Roots() []mapper.DrivenNet {
	roots := make([]mapper.DrivenNet, 0, len(nl.outputOrder))
	for _, id := range nl.outputOrder {
		roots = append(roots, nl.nets[id])
	}
	return roots
}

// SequentialInputs returns the input net of every sequential (register)
// gate in the netlist, in declaration order — the extra root set
// register-to-register mapping needs alongside Roots so retiming stops at
// every register boundary, not just the top-level outputs.
func (nl *Netlist) SequentialInputs() []mapper.DrivenNet {
	var out []mapper.DrivenNet
	for _, id := range nl.order {
		n := nl.nets[id]
		if n.gate != nil && n.gate.IsSequential() {
			out = append(out, n.gate.GetInputPorts()...)
		}
	}
	return out
}

// ---- mapper.Object ----

func (g *gate) IsSequential() bool { return g.cellType == "FDRE" }

func (g *gate) GetConstant() (bool, bool) {
	switch g.cellType {
	case "VCC":
		return true, true
	case "GND":
		return false, true
	default:
		return false, false
	}
}

func (g *gate) GetInputPorts() []mapper.DrivenNet {
	out := make([]mapper.DrivenNet, len(g.inputs))
	for i, n := range g.inputs {
		out[i] = n
	}
	return out
}

func (g *gate) GetOutputPorts() []mapper.DrivenNet { return []mapper.DrivenNet{g.out} }

func (g *gate) GetParameter(name string) (string, bool) {
	v, ok := g.params[name]
	return v, ok
}

func (g *gate) SetParameter(name, value string) {
	if g.params == nil {
		g.params = make(map[string]string)
	}
	g.params[name] = value
}

func (g *gate) InstanceType() string { return g.cellType }

// ---- mapper.DrivenNet ----

func (n *net) GetDriver() (mapper.Object, bool) {
	if n.gate == nil {
		return nil, false
	}
	return n.gate, true
}

func (n *net) GetIdentifier() string  { return n.id }
func (n *net) IsTopLevelOutput() bool { return n.topLevel }
func (n *net) IsAnInput() bool        { return n.input }

func (n *net) GetInstanceType() string {
	if n.gate == nil {
		return ""
	}
	return n.gate.cellType
}

func (n *net) GetOutputIndex() int { return 0 }

// ---- mapper.Netlist ----

// InsertGate appends a freshly-named gate (net id "n<N>") driven by inputs,
// the §6.1 insert_gate operation.
func (nl *Netlist) InsertGate(cellType string, params map[string]string, inputs []mapper.DrivenNet) (mapper.Object, error) {
	ins := make([]*net, len(inputs))
	for i, dn := range inputs {
		n, ok := dn.(*net)
		if !ok {
			return nil, fmt.Errorf("netlist: InsertGate: input %d is not a netlist.net", i)
		}
		ins[i] = n
	}

	id := fmt.Sprintf("n%d", nl.nextID)
	nl.nextID++
	g := &gate{cellType: cellType, params: params, inputs: ins}
	out := &net{id: id, gate: g}
	g.out = out

	nl.nets[id] = out
	nl.order = append(nl.order, id)
	return g, nil
}

// ReplaceNetUses rewires every gate input referencing old onto new, and if
// old was a top-level output, transfers that role (not old's identifier) to
// new — "the new node becomes the output" per §4.7/§9.
func (nl *Netlist) ReplaceNetUses(old, newDN mapper.DrivenNet) error {
	oldNet, ok := old.(*net)
	if !ok {
		return fmt.Errorf("netlist: ReplaceNetUses: old is not a netlist.net")
	}
	newNet, ok := newDN.(*net)
	if !ok {
		return fmt.Errorf("netlist: ReplaceNetUses: new is not a netlist.net")
	}

	for _, id := range nl.order {
		g := nl.nets[id].gate
		if g == nil {
			continue
		}
		for i, in := range g.inputs {
			if in == oldNet {
				g.inputs[i] = newNet
			}
		}
	}

	if oldNet.topLevel {
		oldNet.topLevel = false
		newNet.topLevel = true
		delete(nl.outputs, oldNet.id)
		for i, id := range nl.outputOrder {
			if id == oldNet.id {
				nl.outputOrder[i] = newNet.id
			}
		}
		nl.outputs[newNet.id] = true
	}
	return nil
}

// Clean removes every net unreachable from a top-level output, except
// primary inputs, the §4.7 "dead-code pass" that drops no-longer-driven
// objects after a root swap.
func (nl *Netlist) Clean() error {
	reachable := make(map[string]bool, len(nl.order))
	var mark func(n *net)
	mark = func(n *net) {
		if reachable[n.id] {
			return
		}
		reachable[n.id] = true
		if n.gate != nil {
			for _, in := range n.gate.inputs {
				mark(in)
			}
		}
	}
	for id := range nl.outputs {
		if n, ok := nl.nets[id]; ok {
			mark(n)
		}
	}

	newOrder := make([]string, 0, len(nl.order))
	for _, id := range nl.order {
		n := nl.nets[id]
		if reachable[id] || n.input {
			newOrder = append(newOrder, id)
			continue
		}
		delete(nl.nets, id)
	}
	nl.order = newOrder
	return nil
}

// RenameNets applies identifier renames keyed by each net's current name;
// unknown source names (already swept by Clean) are silently skipped,
// matching §9's "not rollback-safe" best-effort bookkeeping.
func (nl *Netlist) RenameNets(renames map[string]string) error {
	for oldID, newID := range renames {
		n, ok := nl.nets[oldID]
		if !ok {
			continue
		}
		if _, collide := nl.nets[newID]; collide {
			return fmt.Errorf("netlist: RenameNets: target identifier %q already in use", newID)
		}

		delete(nl.nets, oldID)
		n.id = newID
		nl.nets[newID] = n
		for i, id := range nl.order {
			if id == oldID {
				nl.order[i] = newID
			}
		}
		if nl.outputs[oldID] {
			delete(nl.outputs, oldID)
			nl.outputs[newID] = true
			for i, id := range nl.outputOrder {
				if id == oldID {
					nl.outputOrder[i] = newID
				}
			}
		}
	}
	return nil
}

// Verify performs a minimal structural sanity check: every gate's inputs
// resolve to a live net and every declared output exists.
func (nl *Netlist) Verify() error {
	for _, id := range nl.order {
		n := nl.nets[id]
		if n.gate == nil {
			continue
		}
		for _, in := range n.gate.inputs {
			if _, ok := nl.nets[in.id]; !ok {
				return fmt.Errorf("netlist: Verify: gate %q references missing net %q", id, in.id)
			}
		}
	}
	for id := range nl.outputs {
		if _, ok := nl.nets[id]; !ok {
			return fmt.Errorf("netlist: Verify: output %q is not a defined net", id)
		}
	}
	return nil
}
