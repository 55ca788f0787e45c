// Package errors implements the three error taxonomies of the compiler:
// compile-time diagnostics (accumulated, non-fatal until the end of a pass),
// internal compiler errors (abort immediately, never silent), and the
// runtime errors the VM itself raises. Diagnostics are typed values so
// callers can branch on Category instead of parsing strings, and render
// with ANSI color the way the reference compiler's error package does.
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Category identifies a compile-time diagnostic kind (spec §7, taxonomy 1).
type Category string

const (
	UndeclaredName      Category = "UndeclaredName"
	Redeclaration       Category = "Redeclaration"
	ArrayVsScalarMisuse Category = "ArrayVsScalarMisuse"
	BadArrayBounds      Category = "BadArrayBounds"
	ForIteratorWrite    Category = "ForIteratorWrite"
	WriteToNonLvalue    Category = "WriteToNonLvalue"
	LiteralOutOfRange   Category = "LiteralOutOfRange"
	SyntaxError         Category = "SyntaxError"
)

// Position is a minimal source location; kept separate from pkg/ast.Position
// so this package has no dependency on the AST.
type Position struct {
	Line   int
	Column int
}

// CompileError is a single accumulated diagnostic (taxonomy 1). The verifier
// collects these across its one pass; compilation halts only once the whole
// pass has run and the list is non-empty.
type CompileError struct {
	Category   Category
	Message    string
	Name       string // offending identifier, when applicable
	Pos        Position
	Suggestion string
}

func (e *CompileError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%q) at %d:%d", e.Category, e.Message, e.Name, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%s: %s at %d:%d", e.Category, e.Message, e.Pos.Line, e.Pos.Column)
}

// WithSuggestion attaches a one-line remediation hint.
func (e *CompileError) WithSuggestion(s string) *CompileError {
	e.Suggestion = s
	return e
}

// Format renders the diagnostic with ANSI color, mirroring the reference
// compiler's FormatError/CompileError.FormatError.
func (e *CompileError) Format() string {
	var sb strings.Builder
	bold := color.New(color.Bold, color.FgRed)
	sb.WriteString(bold.Sprintf("%s: ", e.Category))
	sb.WriteString(e.Message)
	if e.Name != "" {
		sb.WriteString(fmt.Sprintf(" (%q)", e.Name))
	}
	sb.WriteString(fmt.Sprintf("\n  at line %d, column %d\n", e.Pos.Line, e.Pos.Column))
	if e.Suggestion != "" {
		sb.WriteString(color.New(color.FgYellow).Sprintf("  hint: %s\n", e.Suggestion))
	}
	return sb.String()
}

// InternalError is taxonomy 2: a bug in the compiler itself (unreachable IR
// shape, an unresolved label surviving to emission, scratch-pool
// exhaustion). It is never accumulated alongside CompileErrors and always
// aborts the pass that raised it immediately.
type InternalError struct {
	Stage   string // e.g. "codegen", "resolver"
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Stage, e.Message)
}

// NewInternal constructs an InternalError for a given pipeline stage.
func NewInternal(stage, format string, args ...interface{}) *InternalError {
	return &InternalError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// RuntimeError is taxonomy 3: a fault raised by the VM itself while
// executing an instruction stream (spec §6/§7: uninitialized read,
// out-of-range IP). A well-typed program that the generator produced
// should never trigger one; seeing one during execution of generated code
// means the generator has a bug, not the source program.
type RuntimeError struct {
	Kind string // "uninitialized read", "out-of-range ip", ...
	IP   int64
	Detail string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at ip=%d: %s: %s", e.IP, e.Kind, e.Detail)
}

// NewRuntime constructs a RuntimeError.
func NewRuntime(ip int64, kind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{IP: ip, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Diagnostics is an accumulator used by the verifier: it collects every
// violation found during the single recursive pass instead of stopping at
// the first one (spec §4.2 / §7 recovery policy).
type Diagnostics struct {
	errs []*CompileError
}

// Add records a diagnostic.
func (d *Diagnostics) Add(e *CompileError) {
	d.errs = append(d.errs, e)
}

// HasErrors reports whether any diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.errs) > 0
}

// All returns every recorded diagnostic, in discovery order.
func (d *Diagnostics) All() []*CompileError {
	return d.errs
}

// FormatAll renders every diagnostic, one per paragraph, colorized.
func (d *Diagnostics) FormatAll() string {
	var sb strings.Builder
	for _, e := range d.errs {
		sb.WriteString(e.Format())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Error implements the error interface so a Diagnostics value with at least
// one entry can be returned directly as an error from the verifier.
func (d *Diagnostics) Error() string {
	msgs := make([]string, 0, len(d.errs))
	for _, e := range d.errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
