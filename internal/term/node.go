package term

import (
	"fmt"
	"strings"
)

// Node is the capability interface listed in §4.1: the minimal surface the
// e-graph, extractors and cost functions compile against, never against a
// concrete variant. Every variant type below implements it, the same way
// every ir.Instruction variant implements GetID/GetResult/GetOperands/
// GetBlock/IsTerminator in the teacher.
type Node interface {
	// Op returns the node's variant tag.
	Op() Op
	// Children returns the node's child references. For a term.Expr these
	// are indices into the owning node slice; inside an e-graph they are
	// canonical e-class ids. Either way "children; children-mut" from the
	// §4.1 capability list.
	Children() []int
	// SetChildren replaces the node's child references in place (used by
	// e-graph canonicalization to repoint children at union-find roots).
	SetChildren([]int)
	// IsBus reports whether this node is a Bus (only legal as the last node
	// of a term DAG, per §3).
	IsBus() bool
	// IsLut reports whether this node is a Lut.
	IsLut() bool
	// VarName returns the variable name and true if this is a Var node.
	VarName() (string, bool)
	// Int returns the integer literal and true if this is a Program, Arg or
	// Cycle node (the three variants that carry a bare integer per §3).
	Int() (uint64, bool)
	// Key returns a congruence-matching key covering the node's operator and
	// any variant-specific payload (variable name, cell name, program value,
	// ...) but deliberately excluding children — the e-graph combines Key()
	// with canonical child class ids to decide congruence.
	Key() string
	// Clone returns a deep copy (children slice included) so mutation via
	// SetChildren on one copy never aliases another.
	Clone() Node
	String() string
}

// Var is a free leaf: a netlist input or an analysis barrier (§3).
type Var struct {
	Name string
}

func (v *Var) Op() Op                { return OpVar }
func (v *Var) Children() []int       { return nil }
func (v *Var) SetChildren([]int)     {}
func (v *Var) IsBus() bool           { return false }
func (v *Var) IsLut() bool           { return false }
func (v *Var) VarName() (string, bool) { return v.Name, true }
func (v *Var) Int() (uint64, bool)   { return 0, false }
func (v *Var) Key() string           { return "Var:" + v.Name }
func (v *Var) Clone() Node           { c := *v; return &c }
func (v *Var) String() string        { return v.Name }

// Const is a logical 0 or 1.
type Const struct {
	Value bool
}

func (c *Const) Op() Op                  { return OpConst }
func (c *Const) Children() []int         { return nil }
func (c *Const) SetChildren([]int)       {}
func (c *Const) IsBus() bool             { return false }
func (c *Const) IsLut() bool             { return false }
func (c *Const) VarName() (string, bool) { return "", false }
func (c *Const) Int() (uint64, bool)     { return 0, false }
func (c *Const) Key() string {
	if c.Value {
		return "Const:1"
	}
	return "Const:0"
}
func (c *Const) Clone() Node { d := *c; return &d }
func (c *Const) String() string {
	if c.Value {
		return "1"
	}
	return "0"
}

// DC is a don't-care leaf, legal only in LutLang.
type DC struct{}

func (d *DC) Op() Op                  { return OpDC }
func (d *DC) Children() []int         { return nil }
func (d *DC) SetChildren([]int)       {}
func (d *DC) IsBus() bool             { return false }
func (d *DC) IsLut() bool             { return false }
func (d *DC) VarName() (string, bool) { return "", false }
func (d *DC) Int() (uint64, bool)     { return 0, false }
func (d *DC) Key() string             { return "DC" }
func (d *DC) Clone() Node             { return &DC{} }
func (d *DC) String() string          { return "DC" }

// Program is a k<=6 LUT truth-table literal, legal only as the first child
// of a Lut node.
type Program struct {
	Value uint64
}

func (p *Program) Op() Op                  { return OpProgram }
func (p *Program) Children() []int         { return nil }
func (p *Program) SetChildren([]int)       {}
func (p *Program) IsBus() bool             { return false }
func (p *Program) IsLut() bool             { return false }
func (p *Program) VarName() (string, bool) { return "", false }
func (p *Program) Int() (uint64, bool)     { return p.Value, true }
func (p *Program) Key() string             { return fmt.Sprintf("Program:%d", p.Value) }
func (p *Program) Clone() Node             { c := *p; return &c }
func (p *Program) String() string          { return fmt.Sprintf("%d", p.Value) }

// Lut is a k-input lookup table: Kids[0] is the Program child, Kids[1:] are
// the k inputs ordered x_{k-1}..x_0 per §3/§4.1.
type Lut struct {
	Kids []int
}

func (l *Lut) Op() Op              { return OpLut }
func (l *Lut) Children() []int     { return l.Kids }
func (l *Lut) SetChildren(c []int) { l.Kids = c }
func (l *Lut) IsBus() bool         { return false }
func (l *Lut) IsLut() bool         { return true }
func (l *Lut) VarName() (string, bool) { return "", false }
func (l *Lut) Int() (uint64, bool) { return 0, false }
func (l *Lut) Key() string         { return "Lut" }
func (l *Lut) Clone() Node {
	kids := append([]int(nil), l.Kids...)
	return &Lut{Kids: kids}
}
func (l *Lut) String() string {
	return fmt.Sprintf("Lut/%d", len(l.Kids))
}

// K returns the fan-in (number of data inputs, excluding the Program child).
func (l *Lut) K() int { return len(l.Kids) - 1 }

// Reg is a unit-delay register: an opaque sequential barrier (§3/§4.1).
type Reg struct {
	D int
}

func (r *Reg) Op() Op                  { return OpReg }
func (r *Reg) Children() []int         { return []int{r.D} }
func (r *Reg) SetChildren(c []int)     { r.D = c[0] }
func (r *Reg) IsBus() bool             { return false }
func (r *Reg) IsLut() bool             { return false }
func (r *Reg) VarName() (string, bool) { return "", false }
func (r *Reg) Int() (uint64, bool)     { return 0, false }
func (r *Reg) Key() string             { return "Reg" }
func (r *Reg) Clone() Node             { c := *r; return &c }
func (r *Reg) String() string          { return "Reg" }

// Gate is one of the Boolean primitives And/Or/Xor/Nor/Mux/Inv/Not, grouped
// into a single struct with an Op discriminator the same way the teacher
// groups every arithmetic operator into one BinaryInstruction with an Op
// string field (internal/ir/types.go) rather than one type per operator.
type Gate struct {
	GateOp Op
	Kids   []int
}

func (g *Gate) Op() Op              { return g.GateOp }
func (g *Gate) Children() []int     { return g.Kids }
func (g *Gate) SetChildren(c []int) { g.Kids = c }
func (g *Gate) IsBus() bool         { return false }
func (g *Gate) IsLut() bool         { return false }
func (g *Gate) VarName() (string, bool) { return "", false }
func (g *Gate) Int() (uint64, bool) { return 0, false }
func (g *Gate) Key() string         { return g.GateOp.String() }
func (g *Gate) Clone() Node {
	kids := append([]int(nil), g.Kids...)
	return &Gate{GateOp: g.GateOp, Kids: kids}
}
func (g *Gate) String() string {
	parts := make([]string, len(g.Kids))
	for i, k := range g.Kids {
		parts[i] = fmt.Sprintf("%d", k)
	}
	return fmt.Sprintf("%s(%s)", g.GateOp, strings.Join(parts, ","))
}

// Cell is a named standard cell (ASIC language).
type Cell struct {
	Name string
	Kids []int
}

func (c *Cell) Op() Op              { return OpCell }
func (c *Cell) Children() []int     { return c.Kids }
func (c *Cell) SetChildren(k []int) { c.Kids = k }
func (c *Cell) IsBus() bool         { return false }
func (c *Cell) IsLut() bool         { return false }
func (c *Cell) VarName() (string, bool) { return "", false }
func (c *Cell) Int() (uint64, bool) { return 0, false }
func (c *Cell) Key() string         { return "Cell:" + c.Name }
func (c *Cell) Clone() Node {
	kids := append([]int(nil), c.Kids...)
	return &Cell{Name: c.Name, Kids: kids}
}
func (c *Cell) String() string { return c.Name }

// Bus groups m outputs into a single tuple node; only legal as the last node
// of a term DAG (§3).
type Bus struct {
	Kids []int
}

func (b *Bus) Op() Op              { return OpBus }
func (b *Bus) Children() []int     { return b.Kids }
func (b *Bus) SetChildren(k []int) { b.Kids = k }
func (b *Bus) IsBus() bool         { return true }
func (b *Bus) IsLut() bool         { return false }
func (b *Bus) VarName() (string, bool) { return "", false }
func (b *Bus) Int() (uint64, bool) { return 0, false }
func (b *Bus) Key() string         { return "Bus" }
func (b *Bus) Clone() Node {
	kids := append([]int(nil), b.Kids...)
	return &Bus{Kids: kids}
}
func (b *Bus) String() string { return fmt.Sprintf("Bus/%d", len(b.Kids)) }

// Arg is a positional placeholder used by rewrite rule templates.
type Arg struct {
	Index int
}

func (a *Arg) Op() Op                  { return OpArg }
func (a *Arg) Children() []int         { return nil }
func (a *Arg) SetChildren([]int)       {}
func (a *Arg) IsBus() bool             { return false }
func (a *Arg) IsLut() bool             { return false }
func (a *Arg) VarName() (string, bool) { return "", false }
func (a *Arg) Int() (uint64, bool)     { return uint64(a.Index), true }
func (a *Arg) Key() string             { return fmt.Sprintf("Arg:%d", a.Index) }
func (a *Arg) Clone() Node             { c := *a; return &c }
func (a *Arg) String() string          { return fmt.Sprintf("$%d", a.Index) }

// Cycle marks a broken combinational cycle for driver tracking (§3).
type Cycle struct {
	Idx int
}

func (c *Cycle) Op() Op                  { return OpCycle }
func (c *Cycle) Children() []int         { return nil }
func (c *Cycle) SetChildren([]int)       {}
func (c *Cycle) IsBus() bool             { return false }
func (c *Cycle) IsLut() bool             { return false }
func (c *Cycle) VarName() (string, bool) { return "", false }
func (c *Cycle) Int() (uint64, bool)     { return uint64(c.Idx), true }
func (c *Cycle) Key() string             { return fmt.Sprintf("Cycle:%d", c.Idx) }
func (c *Cycle) Clone() Node             { d := *c; return &d }
func (c *Cycle) String() string          { return fmt.Sprintf("Cycle#%d", c.Idx) }
