package codegen

import (
	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/ir"
)

// genDiff leaves a-b in the accumulator, using cellTempA as scratch for b.
func (g *Generator) genDiff(a, b ir.Operand) {
	g.genLoadOperand(b)
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.genLoadOperand(a)
	g.b.Emit(asm.SUB, int64(cellTempA))
}

// genCondJump lowers the six relational operators of spec §4.4. Each
// conditional commits the accumulator's sign via exactly one JPOS/JZERO/
// JNEG paired with a single fallthrough JUMP, so the resolver never has to
// reason about a dangling branch (spec's tie-break policy).
func (g *Generator) genCondJump(op ir.Op) {
	lThen := label(op.LabelThen)
	lElse := label(op.LabelElse)

	switch op.CondOp {
	case ir.Eq:
		g.genDiff(op.A, op.B)
		g.b.EmitJump(asm.JZERO, lThen)
		g.b.EmitJump(asm.JUMP, lElse)
	case ir.Neq:
		g.genDiff(op.A, op.B)
		g.b.EmitJump(asm.JZERO, lElse)
		g.b.EmitJump(asm.JUMP, lThen)
	case ir.Lt:
		g.genDiff(op.A, op.B)
		g.b.EmitJump(asm.JNEG, lThen)
		g.b.EmitJump(asm.JUMP, lElse)
	case ir.Ge:
		g.genDiff(op.A, op.B)
		g.b.EmitJump(asm.JNEG, lElse)
		g.b.EmitJump(asm.JUMP, lThen)
	case ir.Le:
		g.genDiff(op.B, op.A)
		g.b.EmitJump(asm.JNEG, lElse)
		g.b.EmitJump(asm.JUMP, lThen)
	case ir.Gt:
		g.genDiff(op.B, op.A)
		g.b.EmitJump(asm.JNEG, lThen)
		g.b.EmitJump(asm.JUMP, lElse)
	}
}
