package compiler

import (
	"github.com/jakubdabek/gembiler/pkg/ast"
	"github.com/jakubdabek/gembiler/pkg/errors"
)

// Verifier performs the single recursive pass of spec §4.2: it builds the
// symbol table from the DECLARE block, then walks every command accumulating
// diagnostics for each static-semantics violation it finds. It never stops
// at the first error; the caller checks Diagnostics.HasErrors() once the
// whole pass has run.
type Verifier struct {
	symbols *SymbolTable
	diags   errors.Diagnostics
}

// NewVerifier creates a Verifier with a fresh symbol table.
func NewVerifier() *Verifier {
	return &Verifier{symbols: NewSymbolTable()}
}

// Verify runs the pass over prog. It returns the populated symbol table (for
// the IR builder to consume) and the accumulated diagnostics; callers must
// check diags.HasErrors() before proceeding to lowering.
func Verify(prog *ast.Program) (*SymbolTable, *errors.Diagnostics) {
	v := NewVerifier()
	v.declareAll(prog.Declarations)
	v.checkCommands(prog.Commands)
	return v.symbols, &v.diags
}

func toPos(p ast.Position) errors.Position {
	return errors.Position{Line: p.Line, Column: p.Column}
}

func (v *Verifier) declareAll(decls []ast.Declaration) {
	for _, d := range decls {
		switch dd := d.(type) {
		case *ast.ScalarDecl:
			if _, err := v.symbols.DeclareScalar(dd.Ident); err != nil {
				err.Pos = toPos(dd.Position)
				v.diags.Add(err)
			}
		case *ast.ArrayDecl:
			if _, err := v.symbols.DeclareArray(dd.Ident, dd.Lo, dd.Hi); err != nil {
				err.Pos = toPos(dd.Position)
				v.diags.Add(err)
			}
		}
	}
}

func (v *Verifier) checkCommands(cmds []ast.Command) {
	for _, c := range cmds {
		v.checkCommand(c)
	}
}

func (v *Verifier) checkCommand(c ast.Command) {
	switch cc := c.(type) {
	case *ast.AssignCmd:
		v.checkLValue(cc.Target, true)
		v.checkExpr(cc.Expr)
	case *ast.IfCmd:
		v.checkCondition(cc.Cond)
		v.checkCommands(cc.Then)
		v.checkCommands(cc.Else)
	case *ast.WhileCmd:
		v.checkCondition(cc.Cond)
		v.checkCommands(cc.Body)
	case *ast.DoWhileCmd:
		v.checkCommands(cc.Body)
		v.checkCondition(cc.Cond)
	case *ast.ForCmd:
		v.checkForCmd(cc)
	case *ast.ReadCmd:
		v.checkLValue(cc.Target, true)
	case *ast.WriteCmd:
		v.checkExpr(cc.Expr)
	}
}

func (v *Verifier) checkForCmd(c *ast.ForCmd) {
	v.checkValue(c.From)
	v.checkValue(c.To)

	dir := Up
	if c.Down {
		dir = Down
	}
	_, _, err := v.symbols.EnterFor(c.Iterator, dir)
	if err != nil {
		err.Pos = toPos(c.Position)
		v.diags.Add(err)
		// Still check the body against the outer scope so later errors in
		// it aren't masked by the missing iterator binding.
		v.checkCommands(c.Body)
		return
	}
	v.checkCommands(c.Body)
	v.symbols.LeaveFor()
}

// checkLValue validates a write target: it must resolve, and if it is a FOR
// iterator the write is rejected as ForIteratorWrite rather than the more
// generic WriteToNonLvalue, since an iterator *is* otherwise a legitimate
// scalar-shaped symbol.
func (v *Verifier) checkLValue(lv ast.LValue, isWrite bool) {
	if lv.IsLiteral {
		v.diags.Add(&errors.CompileError{
			Category: errors.WriteToNonLvalue,
			Message:  "a literal is not a writable target",
			Pos:      toPos(lv.Position),
		})
		return
	}

	sym, ok := v.symbols.Resolve(lv.Name)
	if !ok {
		v.diags.Add(&errors.CompileError{
			Category: errors.UndeclaredName,
			Message:  "use of undeclared name",
			Name:     lv.Name,
			Pos:      toPos(lv.Position),
		})
		return
	}

	if sym.Kind == KindForIterator {
		if isWrite {
			v.diags.Add(&errors.CompileError{
				Category: errors.ForIteratorWrite,
				Message:  "cannot assign to a FOR loop iterator",
				Name:     lv.Name,
				Pos:      toPos(lv.Position),
			})
		}
		if lv.IsArray {
			v.diags.Add(&errors.CompileError{
				Category: errors.ArrayVsScalarMisuse,
				Message:  "scalar name used with an index",
				Name:     lv.Name,
				Pos:      toPos(lv.Position),
			})
		}
		return
	}

	if lv.IsArray && sym.Kind != KindArray {
		v.diags.Add(&errors.CompileError{
			Category: errors.ArrayVsScalarMisuse,
			Message:  "scalar name used with an index",
			Name:     lv.Name,
			Pos:      toPos(lv.Position),
		})
		return
	}
	if !lv.IsArray && sym.Kind == KindArray {
		v.diags.Add(&errors.CompileError{
			Category: errors.ArrayVsScalarMisuse,
			Message:  "array name used without an index",
			Name:     lv.Name,
			Pos:      toPos(lv.Position),
		})
		return
	}

	if lv.IsArray && lv.IndexKind == ast.ValIdent {
		v.checkUse(lv.IndexName, lv.Position)
	}
}

func (v *Verifier) checkExpr(e ast.Expr) {
	if e.IsBinary {
		v.checkValue(e.Left)
		v.checkValue(e.Right)
		return
	}
	v.checkValue(e.Value)
}

func (v *Verifier) checkCondition(c ast.Condition) {
	v.checkValue(c.Left)
	v.checkValue(c.Right)
}

func (v *Verifier) checkValue(val ast.Value) {
	switch val.Kind {
	case ast.ValNum:
		return
	case ast.ValIdent:
		v.checkUse(val.Name, val.Position)
	case ast.ValArrayByIdent:
		v.checkArrayUse(val.Name, val.Position)
		v.checkUse(val.IndexName, val.Position)
	case ast.ValArrayByNum:
		v.checkArrayUse(val.Name, val.Position)
	}
}

// checkUse validates a scalar-shaped read: the name must resolve to a
// scalar or a FOR iterator, not an array.
func (v *Verifier) checkUse(name string, pos ast.Position) {
	sym, ok := v.symbols.Resolve(name)
	if !ok {
		v.diags.Add(&errors.CompileError{
			Category: errors.UndeclaredName,
			Message:  "use of undeclared name",
			Name:     name,
			Pos:      toPos(pos),
		})
		return
	}
	if sym.Kind == KindArray {
		v.diags.Add(&errors.CompileError{
			Category: errors.ArrayVsScalarMisuse,
			Message:  "array name used without an index",
			Name:     name,
			Pos:      toPos(pos),
		})
	}
}

// checkArrayUse validates an array-shaped read: the name must resolve to an
// array, not a scalar or iterator.
func (v *Verifier) checkArrayUse(name string, pos ast.Position) {
	sym, ok := v.symbols.Resolve(name)
	if !ok {
		v.diags.Add(&errors.CompileError{
			Category: errors.UndeclaredName,
			Message:  "use of undeclared name",
			Name:     name,
			Pos:      toPos(pos),
		})
		return
	}
	if sym.Kind != KindArray {
		v.diags.Add(&errors.CompileError{
			Category: errors.ArrayVsScalarMisuse,
			Message:  "scalar name used with an index",
			Name:     name,
			Pos:      toPos(pos),
		})
	}
}
