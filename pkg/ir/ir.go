// Package ir defines the flat three-address-style intermediate
// representation produced by Build and consumed by pkg/codegen (spec §4.3).
// Operands already carry resolved VM cell addresses: name resolution is the
// verifier's job, so by the time a command reaches this package every
// identifier has become a uint64 cell or a literal constant.
package ir

import (
	"github.com/jakubdabek/gembiler/pkg/ast"
	"github.com/jakubdabek/gembiler/pkg/compiler"
)

// OperandKind distinguishes a literal constant from a resolved cell.
type OperandKind int

const (
	OperandConst OperandKind = iota
	OperandCell
)

// Operand is a leaf value: either a compile-time constant or a memory cell.
type Operand struct {
	Kind  OperandKind
	Const int64
	Cell  uint64
}

// ConstOperand builds a literal operand.
func ConstOperand(k int64) Operand { return Operand{Kind: OperandConst, Const: k} }

// CellOperand builds a resolved-cell operand.
func CellOperand(c uint64) Operand { return Operand{Kind: OperandCell, Cell: c} }

// ArrayRef names the cells of one array symbol, carried alongside indexed
// IR ops so the generator need not re-resolve the symbol table.
type ArrayRef struct {
	Name       string
	Base       uint64
	OffsetCell uint64
	Lo, Hi     int64
}

// BinOp mirrors ast.BinOp plus the Div/Mod split the generator must
// synthesize from scratch (spec §4.4).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
)

func binOpFromAST(op ast.BinOp) BinOp {
	switch op {
	case ast.OpPlus:
		return Add
	case ast.OpMinus:
		return Sub
	case ast.OpTimes:
		return Mul
	case ast.OpDiv:
		return Div
	case ast.OpMod:
		return Mod
	}
	panic("ir: unreachable BinOp")
}

// CondOp mirrors ast.RelOp.
type CondOp int

const (
	Eq CondOp = iota
	Neq
	Lt
	Le
	Gt
	Ge
)

func condOpFromAST(op ast.RelOp) CondOp {
	switch op {
	case ast.RelEq:
		return Eq
	case ast.RelNeq:
		return Neq
	case ast.RelLt:
		return Lt
	case ast.RelLe:
		return Le
	case ast.RelGt:
		return Gt
	case ast.RelGe:
		return Ge
	}
	panic("ir: unreachable CondOp")
}

// Label is an opaque arena index minted during lowering. It is not an
// instruction-stream position: the generator emits Label ops as ordinary
// list entries and the resolver (pkg/asm) walks the finished list once to
// bind each Label to its final instruction index, then again to rewrite
// every JumpRef (spec §9 "labels as arena indices").
type Label int

// Op is one IR instruction. Only the fields relevant to Kind are populated;
// this mirrors the "tagged variant" the spec describes rather than one
// interface type per op, since every op here is a flat leaf with no nested
// structure to dispatch on.
type Op struct {
	Kind OpKind

	Dst Operand // LoadConst, Copy, LoadIndexed, BinOp, Read
	Src Operand // Copy, Write, StoreIndexed

	A, B Operand // BinOp operands; JumpIf operands

	Const int64 // LoadConst

	Arr   ArrayRef // LoadIndexed, StoreIndexed
	Index Operand  // LoadIndexed, StoreIndexed

	BinOp BinOp // BinOp

	CondOp     CondOp // JumpIf
	LabelThen  Label  // JumpIf
	LabelElse  Label  // JumpIf
	LabelJump  Label  // Jump
	LabelHere  Label  // Label (pseudo-op marking a position)
}

// OpKind enumerates the IR op set of spec §4.3.
type OpKind int

const (
	OpLoadConst OpKind = iota
	OpCopy
	OpLoadIndexed
	OpStoreIndexed
	OpBinOp
	OpRead
	OpWrite
	OpJumpIf
	OpJump
	OpLabel
	OpHalt
)

// Builder lowers an AST command sequence into a flat []Op, given the symbol
// table the verifier already populated. It mints Labels for every structured
// construct per the patterns in spec §4.3.
type Builder struct {
	symbols    *compiler.SymbolTable
	ops        []Op
	nextLabel  Label
}

// NewBuilder creates a Builder over an already-verified symbol table.
func NewBuilder(symbols *compiler.SymbolTable) *Builder {
	return &Builder{symbols: symbols}
}

// Build lowers a full command sequence and appends a terminating Halt.
func Build(symbols *compiler.SymbolTable, commands []ast.Command) []Op {
	b := NewBuilder(symbols)
	b.lowerCommands(commands)
	b.emit(Op{Kind: OpHalt})
	return b.ops
}

func (b *Builder) emit(op Op) {
	b.ops = append(b.ops, op)
}

func (b *Builder) newLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

func (b *Builder) lowerCommands(cmds []ast.Command) {
	for _, c := range cmds {
		b.lowerCommand(c)
	}
}

func (b *Builder) lowerCommand(c ast.Command) {
	switch cc := c.(type) {
	case *ast.AssignCmd:
		b.lowerAssign(cc)
	case *ast.IfCmd:
		b.lowerIf(cc)
	case *ast.WhileCmd:
		b.lowerWhile(cc)
	case *ast.DoWhileCmd:
		b.lowerDoWhile(cc)
	case *ast.ForCmd:
		b.lowerFor(cc)
	case *ast.ReadCmd:
		b.lowerRead(cc)
	case *ast.WriteCmd:
		b.lowerWrite(cc)
	}
}

// lowerValue resolves a Value leaf to an Operand. Array-element reads are
// emitted as a LoadIndexed into scratch first; every caller passes a scratch
// cell, and it is used only when the value is an array element.
func (b *Builder) lowerValue(v ast.Value, scratch uint64) Operand {
	switch v.Kind {
	case ast.ValNum:
		return ConstOperand(v.Num)
	case ast.ValIdent:
		cell, _ := b.symbols.AddrOfScalar(v.Name)
		if cell == 0 {
			if sym, ok := b.symbols.Resolve(v.Name); ok && sym.Kind == compiler.KindForIterator {
				cell = sym.Cell
			}
		}
		return CellOperand(cell)
	case ast.ValArrayByNum:
		arr := b.arrayRef(v.Name)
		dstOp := CellOperand(scratch)
		b.emit(Op{Kind: OpLoadIndexed, Dst: dstOp, Arr: arr, Index: ConstOperand(v.Num)})
		return dstOp
	case ast.ValArrayByIdent:
		arr := b.arrayRef(v.Name)
		idxCell, _ := b.symbols.AddrOfScalar(v.IndexName)
		if idxCell == 0 {
			if sym, ok := b.symbols.Resolve(v.IndexName); ok && sym.Kind == compiler.KindForIterator {
				idxCell = sym.Cell
			}
		}
		dstOp := CellOperand(scratch)
		b.emit(Op{Kind: OpLoadIndexed, Dst: dstOp, Arr: arr, Index: CellOperand(idxCell)})
		return dstOp
	}
	panic("ir: unreachable Value kind")
}

func (b *Builder) arrayRef(name string) ArrayRef {
	sym, _ := b.symbols.Resolve(name)
	return ArrayRef{Name: sym.Name, Base: sym.CellBase, OffsetCell: sym.OffsetCell, Lo: sym.IndexLo, Hi: sym.IndexHi}
}

// lowerAssign stores the expression result either straight into a scalar's
// cell or, for an array element, through a StoreIndexed with a constant or
// variable index (spec §4.4 array access).
func (b *Builder) lowerAssign(c *ast.AssignCmd) {
	var a, bOp Operand
	if c.Expr.IsBinary {
		a = b.lowerValue(c.Expr.Left, compiler.CellTempA)
		bOp = b.lowerValue(c.Expr.Right, compiler.CellTempB)
	} else {
		a = b.lowerValue(c.Expr.Value, compiler.CellTempA)
	}

	if !c.Target.IsArray {
		cell, _ := b.symbols.AddrOfScalar(c.Target.Name)
		dst := CellOperand(cell)
		b.emitExprResult(dst, c.Expr.IsBinary, a, bOp, c.Expr.Op)
		return
	}

	arr := b.arrayRef(c.Target.Name)
	var idx Operand
	if c.Target.IndexKind == ast.ValNum {
		idx = ConstOperand(c.Target.IndexNum)
	} else {
		idxCell, _ := b.symbols.AddrOfScalar(c.Target.IndexName)
		if idxCell == 0 {
			if sym, ok := b.symbols.Resolve(c.Target.IndexName); ok && sym.Kind == compiler.KindForIterator {
				idxCell = sym.Cell
			}
		}
		idx = CellOperand(idxCell)
	}

	// Materialize the expression result into a scratch cell, then store it
	// indexed; StoreIndexed always reads its Src from a plain cell/const.
	result := CellOperand(compiler.CellTempC)
	b.emitExprResult(result, c.Expr.IsBinary, a, bOp, c.Expr.Op)
	b.emit(Op{Kind: OpStoreIndexed, Arr: arr, Index: idx, Src: result})
}

func (b *Builder) emitExprResult(dst Operand, isBinary bool, a, bOp Operand, astOp ast.BinOp) {
	if !isBinary {
		b.emit(Op{Kind: OpCopy, Dst: dst, Src: a})
		return
	}
	b.emit(Op{Kind: OpBinOp, Dst: dst, A: a, B: bOp, BinOp: binOpFromAST(astOp)})
}

func (b *Builder) lowerRead(c *ast.ReadCmd) {
	if !c.Target.IsArray {
		cell, _ := b.symbols.AddrOfScalar(c.Target.Name)
		b.emit(Op{Kind: OpRead, Dst: CellOperand(cell)})
		return
	}
	arr := b.arrayRef(c.Target.Name)
	var idx Operand
	if c.Target.IndexKind == ast.ValNum {
		idx = ConstOperand(c.Target.IndexNum)
	} else {
		idxCell, _ := b.symbols.AddrOfScalar(c.Target.IndexName)
		if idxCell == 0 {
			if sym, ok := b.symbols.Resolve(c.Target.IndexName); ok && sym.Kind == compiler.KindForIterator {
				idxCell = sym.Cell
			}
		}
		idx = CellOperand(idxCell)
	}
	tmp := CellOperand(compiler.CellTempA)
	b.emit(Op{Kind: OpRead, Dst: tmp})
	b.emit(Op{Kind: OpStoreIndexed, Arr: arr, Index: idx, Src: tmp})
}

func (b *Builder) lowerWrite(c *ast.WriteCmd) {
	var a, bOp Operand
	if c.Expr.IsBinary {
		a = b.lowerValue(c.Expr.Left, compiler.CellTempA)
		bOp = b.lowerValue(c.Expr.Right, compiler.CellTempB)
		tmp := CellOperand(compiler.CellTempC)
		b.emit(Op{Kind: OpBinOp, Dst: tmp, A: a, B: bOp, BinOp: binOpFromAST(c.Expr.Op)})
		b.emit(Op{Kind: OpWrite, Src: tmp})
		return
	}
	a = b.lowerValue(c.Expr.Value, compiler.CellTempA)
	b.emit(Op{Kind: OpWrite, Src: a})
}

func (b *Builder) lowerCondJump(cond ast.Condition, lThen, lElse Label) {
	left := b.lowerValue(cond.Left, compiler.CellTempA)
	right := b.lowerValue(cond.Right, compiler.CellTempB)
	b.emit(Op{Kind: OpJumpIf, A: left, B: right, CondOp: condOpFromAST(cond.Op), LabelThen: lThen, LabelElse: lElse})
}

// lowerIf implements `IF c THEN T ELSE E`: L_t: T; JUMP L_end; L_e: E; L_end:
func (b *Builder) lowerIf(c *ast.IfCmd) {
	lThen := b.newLabel()
	lElse := b.newLabel()
	lEnd := b.newLabel()

	b.lowerCondJump(c.Cond, lThen, lElse)
	b.emit(Op{Kind: OpLabel, LabelHere: lThen})
	b.lowerCommands(c.Then)
	b.emit(Op{Kind: OpJump, LabelJump: lEnd})
	b.emit(Op{Kind: OpLabel, LabelHere: lElse})
	b.lowerCommands(c.Else)
	b.emit(Op{Kind: OpLabel, LabelHere: lEnd})
}

// lowerWhile implements: L_head: cond -> L_body/L_end; L_body: body; JUMP L_head; L_end:
func (b *Builder) lowerWhile(c *ast.WhileCmd) {
	lHead := b.newLabel()
	lBody := b.newLabel()
	lEnd := b.newLabel()

	b.emit(Op{Kind: OpLabel, LabelHere: lHead})
	b.lowerCondJump(c.Cond, lBody, lEnd)
	b.emit(Op{Kind: OpLabel, LabelHere: lBody})
	b.lowerCommands(c.Body)
	b.emit(Op{Kind: OpJump, LabelJump: lHead})
	b.emit(Op{Kind: OpLabel, LabelHere: lEnd})
}

// lowerDoWhile implements: L_body: body; cond -> L_body/L_end; L_end:
func (b *Builder) lowerDoWhile(c *ast.DoWhileCmd) {
	lBody := b.newLabel()
	lEnd := b.newLabel()

	b.emit(Op{Kind: OpLabel, LabelHere: lBody})
	b.lowerCommands(c.Body)
	b.lowerCondJump(c.Cond, lBody, lEnd)
	b.emit(Op{Kind: OpLabel, LabelHere: lEnd})
}

// lowerFor implements spec §4.3/§4.4: evaluate both bounds once at entry,
// freeze them in the iterator's bound cell, then loop with a header compare
// and a body-tail increment/decrement.
func (b *Builder) lowerFor(c *ast.ForCmd) {
	dir := compiler.Up
	if c.Down {
		dir = compiler.Down
	}
	iterCell, boundCell, verr := b.symbols.EnterFor(c.Iterator, dir)
	if verr != nil {
		// The verifier already reported this; lowering continues best-effort
		// so a single bad FOR doesn't abort the whole build.
		iterCell, boundCell = compiler.CellTempD, compiler.CellTempE
	}

	fromOp := b.lowerValue(c.From, compiler.CellTempA)
	b.emit(Op{Kind: OpCopy, Dst: CellOperand(iterCell), Src: fromOp})
	toOp := b.lowerValue(c.To, compiler.CellTempA)
	b.emit(Op{Kind: OpCopy, Dst: CellOperand(boundCell), Src: toOp})

	lHead := b.newLabel()
	lBody := b.newLabel()
	lEnd := b.newLabel()

	b.emit(Op{Kind: OpLabel, LabelHere: lHead})
	// TO: iter > bound -> end. DOWNTO: iter < bound -> end.
	cmpOp := Gt
	if c.Down {
		cmpOp = Lt
	}
	b.emit(Op{Kind: OpJumpIf, A: CellOperand(iterCell), B: CellOperand(boundCell), CondOp: cmpOp, LabelThen: lEnd, LabelElse: lBody})
	b.emit(Op{Kind: OpLabel, LabelHere: lBody})
	b.lowerCommands(c.Body)

	step := Add
	if c.Down {
		step = Sub
	}
	b.emit(Op{Kind: OpBinOp, Dst: CellOperand(iterCell), A: CellOperand(iterCell), B: ConstOperand(1), BinOp: step})
	b.emit(Op{Kind: OpJump, LabelJump: lHead})
	b.emit(Op{Kind: OpLabel, LabelHere: lEnd})

	if verr == nil {
		b.symbols.LeaveFor()
	}
}
