// Package driver implements §4.5: the saturation loop that repeatedly
// matches and applies rules against an e-graph, rebuilding between
// batches, until a configured limit trips. The functional-options style
// mirrors the teacher's OptimizationPipeline.AddPass pipeline builder
// (internal/ir/optimizations.go), retargeted from a fixed pass list to a
// fixed limit/feature set.
package driver

import (
	"fmt"
	"time"
)

// SynthRequest configures one saturation run. Build one with NewRequest and
// the With* options below, mirroring the teacher's options-returning
// builder chain.
type SynthRequest struct {
	TimeLimit      time.Duration
	NodeLimit      int
	IterLimit      int
	limitsSet      int // bitmask: 1=time, 2=node, 4=iter

	WithProof             bool
	WithReport            bool
	GraphDumpPath         string
	AlgebraicScheduler    bool
	PurgeFn               func(opName string) bool
	Disassembly           map[string]bool
	SkipCanonicalization  bool
}

const (
	limitTime = 1 << iota
	limitNode
	limitIter
)

// NewRequest returns a SynthRequest with no limits configured; callers must
// set at least one via JointLimits/TimeLimited/NodeLimited/IterLimited
// before Validate will accept it.
func NewRequest() *SynthRequest {
	return &SynthRequest{}
}

// JointLimits stops the run when wall-clock >= t, nodes >= n, or
// iterations >= i, whichever comes first.
func (r *SynthRequest) JointLimits(t time.Duration, n, i int) *SynthRequest {
	r.TimeLimit, r.NodeLimit, r.IterLimit = t, n, i
	r.limitsSet = limitTime | limitNode | limitIter
	return r
}

// TimeLimited restricts the run to a wall-clock bound only.
func (r *SynthRequest) TimeLimited(t time.Duration) *SynthRequest {
	r.TimeLimit = t
	r.limitsSet = limitTime
	return r
}

// NodeLimited restricts the run to a node-count bound only.
func (r *SynthRequest) NodeLimited(n int) *SynthRequest {
	r.NodeLimit = n
	r.limitsSet = limitNode
	return r
}

// IterLimited restricts the run to an iteration-count bound only.
func (r *SynthRequest) IterLimited(i int) *SynthRequest {
	r.IterLimit = i
	r.limitsSet = limitIter
	return r
}

// WithProofOpt turns on explanation tracing (a parent-pointer union-find
// annotation recording which rule justified each merge).
func (r *SynthRequest) WithProofOpt() *SynthRequest { r.WithProof = true; return r }

// WithReportOpt sets WithReport. Run fills in the same Report whether or
// not it is set; no per-iteration statistics are collected.
func (r *SynthRequest) WithReportOpt() *SynthRequest { r.WithReport = true; return r }

// WithGraphDump serializes the final e-graph to JSON at path after the run.
func (r *SynthRequest) WithGraphDump(path string) *SynthRequest {
	r.GraphDumpPath = path
	return r
}

// WithAlgebraicScheduler enables the ban-length damping scheduler instead
// of firing every match every iteration.
func (r *SynthRequest) WithAlgebraicScheduler() *SynthRequest {
	r.AlgebraicScheduler = true
	return r
}

// WithPurgeFn sets a predicate over operator names that Run evaluates after
// saturation against every node in the graph; the names it matches are
// returned on Report.Purged. No class or node is removed from the graph.
func (r *SynthRequest) WithPurgeFn(pred func(opName string) bool) *SynthRequest {
	r.PurgeFn = pred
	return r
}

// WithDisassemblyInto records a set of gate/cell names in Disassembly.
// Neither Run nor the extractors read it, so it does not restrict
// extraction.
func (r *SynthRequest) WithDisassemblyInto(names []string) *SynthRequest {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	r.Disassembly = set
	return r
}

// WithoutCanonicalization sets SkipCanonicalization. Run has no
// pre-saturation LUT normalization pass, so the flag does not change what
// Run does.
func (r *SynthRequest) WithoutCanonicalization() *SynthRequest {
	r.SkipCanonicalization = true
	return r
}

// Validate enforces §4.5's limits policy: at most one of {time-only,
// node-only, iter-only} or all three at once; other combinations are
// rejected at configuration time.
func (r *SynthRequest) Validate() error {
	switch r.limitsSet {
	case 0:
		return fmt.Errorf("driver: SynthRequest has no limit configured")
	case limitTime, limitNode, limitIter, limitTime | limitNode | limitIter:
		return nil
	default:
		return fmt.Errorf("driver: SynthRequest limit combination %b is not time-only, node-only, iter-only, or all three", r.limitsSet)
	}
}
