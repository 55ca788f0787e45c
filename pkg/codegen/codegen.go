// Package codegen lowers the flat IR of pkg/ir into accumulator-machine
// instructions (spec §4.4). This is the dominant stage of the pipeline:
// every arithmetic and comparison IR op expands into a template of a dozen
// or more VM instructions because the target machine has no multiplication,
// division, or comparison-to-flag primitive.
package codegen

import (
	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/compiler"
	"github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/ir"
)

// Generator walks an IR op list and emits a symbolic instruction stream via
// an asm.Builder. Scratch cells are statically partitioned per lowering
// template (spec §9); Generator itself holds no dynamic allocator.
type Generator struct {
	b                    *asm.Builder
	internalLabelCounter int
}

// newLabel mints a label private to a lowering template (the internal loops
// of Mul/Div, or the branch arms of a relational lowering). It is kept
// disjoint from the IR builder's labels by using the negative half of the
// LabelID space, since ir.Label values are always non-negative.
func (g *Generator) newLabel() asm.LabelID {
	g.internalLabelCounter++
	return asm.LabelID(-g.internalLabelCounter)
}

// opBinArgs is the operand triple a binary-operator template needs; it
// exists so arithmetic.go/muldiv.go don't each depend on the ir package's
// Op struct shape directly.
type opBinArgs struct {
	A, B ir.Operand
	Dst  uint64
}

// Generate lowers ops into a fully resolved instruction list, including the
// constant prelude (CellOne/CellZero/CellNegOne), each array's offset-cell
// prelude, and any zero-initialization the uninitialized-read obligation of
// spec §7 requires.
func Generate(ops []ir.Op, symbols *compiler.SymbolTable) ([]asm.Instruction, *errors.InternalError) {
	g := &Generator{b: asm.NewBuilder()}

	g.emitPrelude(ops, symbols)

	for _, op := range ops {
		if err := g.genOp(op); err != nil {
			return nil, err
		}
	}

	return asm.Resolve(g.b)
}

func label(l ir.Label) asm.LabelID { return asm.LabelID(l) }

// emitPrelude initializes the three constant scratch cells every arithmetic
// template depends on, then zero-initializes every cell or array whose first
// dynamic use in the op stream is a read (spec §7: "every declared cell is
// initialized before first read... only for cells whose first dynamic use
// is a read").
//
// The accumulator (cell 0) is the one cell the VM itself guarantees holds 0
// at program start (pkg/vm.New); it is the machine's implicit arithmetic
// register, not a "declared" cell in the sense of spec §7's uninitialized-
// read rule, so the prelude can build CellZero/CellOne/CellNegOne from it
// directly without first reading anything.
func (g *Generator) emitPrelude(ops []ir.Op, symbols *compiler.SymbolTable) {
	g.b.Emit(asm.STORE, int64(compiler.CellZero)) // acc is 0 at start; CellZero = 0
	g.b.Emit0(asm.INC)                             // acc = 1
	g.b.Emit(asm.STORE, int64(compiler.CellOne))   // CellOne = 1
	g.b.Emit(asm.LOAD, int64(compiler.CellZero))   // acc = 0
	g.b.Emit(asm.SUB, int64(compiler.CellOne))     // acc = -1
	g.b.Emit(asm.STORE, int64(compiler.CellNegOne))

	for _, arr := range symbols.Arrays() {
		offset := int64(arr.CellBase) - arr.IndexLo
		g.genLoadConst(offset)
		g.b.Emit(asm.STORE, int64(arr.OffsetCell))
	}

	needCell, needArray := analyzeInitNeeds(ops)
	for cell := range needCell {
		g.b.Emit(asm.LOAD, int64(compiler.CellZero))
		g.b.Emit(asm.STORE, int64(cell))
	}
	for _, ar := range needArray {
		for c := ar.Base; c < ar.Base+ar.Length; c++ {
			g.b.Emit(asm.LOAD, int64(compiler.CellZero))
			g.b.Emit(asm.STORE, int64(c))
		}
	}
}

func (g *Generator) genOp(op ir.Op) *errors.InternalError {
	switch op.Kind {
	case ir.OpLoadConst:
		g.genLoadConst(op.Const)
		g.b.Emit(asm.STORE, int64(op.Dst.Cell))
	case ir.OpCopy:
		g.genLoadOperand(op.Src)
		g.b.Emit(asm.STORE, int64(op.Dst.Cell))
	case ir.OpLoadIndexed:
		g.genLoadIndexed(op)
	case ir.OpStoreIndexed:
		g.genStoreIndexed(op)
	case ir.OpBinOp:
		g.genBinOp(op)
	case ir.OpRead:
		g.b.Emit0(asm.GET)
		g.b.Emit(asm.STORE, int64(op.Dst.Cell))
	case ir.OpWrite:
		g.genLoadOperand(op.Src)
		g.b.Emit0(asm.PUT)
	case ir.OpJumpIf:
		g.genCondJump(op)
	case ir.OpJump:
		g.b.EmitJump(asm.JUMP, label(op.LabelJump))
	case ir.OpLabel:
		g.b.Mark(label(op.LabelHere))
	case ir.OpHalt:
		g.b.Emit0(asm.HALT)
	default:
		return errors.NewInternal("codegen", "unreachable IR op kind %d", op.Kind)
	}
	return nil
}

// genLoadOperand leaves operand's value in the accumulator.
func (g *Generator) genLoadOperand(operand ir.Operand) {
	if operand.Kind == ir.OperandConst {
		g.genLoadConst(operand.Const)
		return
	}
	g.b.Emit(asm.LOAD, int64(operand.Cell))
}

// genBinOp dispatches an arithmetic IR op to its lowering template.
func (g *Generator) genBinOp(op ir.Op) {
	args := opBinArgs{A: op.A, B: op.B, Dst: op.Dst.Cell}
	switch op.BinOp {
	case ir.Add:
		g.genAddSub(args, false)
	case ir.Sub:
		g.genAddSub(args, true)
	case ir.Mul:
		g.genMul(args)
	case ir.Div:
		g.genDivMod(args, false)
	case ir.Mod:
		g.genDivMod(args, true)
	}
}
