// Package errs generalizes the teacher's internal/errors package
// (CompilerError, the SemanticErrorBuilder fluent API, Level/Code enums,
// Suggestions) to this domain's failure modes: MappingError with a Kind
// enum covering Parse, Cycle, Conflict, LimitReached, Unmapped and IO,
// matching §7 exactly.
package errs

import (
	"fmt"
	"strings"
)

// Kind classifies a MappingError the way the teacher's error codes
// classify a CompilerError, but as a small closed enum rather than a
// string code space since this domain has a fixed, short failure list.
type Kind string

const (
	KindParse        Kind = "parse"
	KindCycle        Kind = "cycle"
	KindConflict     Kind = "conflict"
	KindLimitReached Kind = "limit-reached"
	KindUnmapped     Kind = "unmapped"
	KindIO           Kind = "io"
)

// MappingError is a structured failure from any stage of the pipeline
// (mapper, driver, extractor, re-materializer), carrying enough context to
// format a useful CLI diagnostic.
type MappingError struct {
	Kind        Kind
	Message     string
	NetName     string
	Suggestions []string
	cause       error
}

func (e *MappingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.NetName != "" {
		fmt.Fprintf(&b, " (net %q)", e.NetName)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *MappingError) Unwrap() error { return e.cause }

// Builder is the fluent construction API, mirroring the teacher's
// SemanticErrorBuilder shape (NewSemanticError(...).WithSuggestion(...).Build()).
type Builder struct {
	err MappingError
}

func new_(kind Kind, message string) *Builder {
	return &Builder{err: MappingError{Kind: kind, Message: message}}
}

// NewCycleError reports a combinational loop detected while mapping a
// netlist cone (§4.2's reverse-topological cycle detection).
func NewCycleError(netName string) *Builder {
	return new_(KindCycle, "combinational cycle detected").WithNet(netName)
}

// NewConflictError reports an e-graph analysis conflict (§4.3 invariant
// (iii): two disagreeing constants merged).
func NewConflictError(message string) *Builder {
	return new_(KindConflict, message)
}

// NewLimitReachedError reports a saturation run that hit a configured
// time/node/iteration limit without being asked to tolerate it.
func NewLimitReachedError(message string) *Builder {
	return new_(KindLimitReached, message)
}

// NewUnmappedError reports a netlist driver with no translation into the
// target term language (missing LogicFunc implementation, multi-output
// cell, or missing INIT parameter).
func NewUnmappedError(netName, message string) *Builder {
	return new_(KindUnmapped, message).WithNet(netName)
}

// NewParseError reports a malformed rule file or cell-library file.
func NewParseError(message string) *Builder {
	return new_(KindParse, message)
}

// NewIOError wraps an underlying I/O failure (reading a rule file, writing
// a report or graph dump).
func NewIOError(message string, cause error) *Builder {
	b := new_(KindIO, message)
	b.err.cause = cause
	return b
}

// WithNet attaches the net/cell name the failure is about.
func (b *Builder) WithNet(name string) *Builder {
	b.err.NetName = name
	return b
}

// WithSuggestion appends a remediation hint shown alongside the error.
func (b *Builder) WithSuggestion(s string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, s)
	return b
}

// WithCause attaches an underlying error to wrap.
func (b *Builder) WithCause(err error) *Builder {
	b.err.cause = err
	return b
}

// Build finalizes the error.
func (b *Builder) Build() *MappingError {
	e := b.err
	return &e
}
