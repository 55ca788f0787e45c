package codegen

import "github.com/jakubdabek/gembiler/pkg/asm"

// genLoadConst leaves k in the accumulator, built from its binary
// representation rather than k successive INCs (spec §4.4): double via
// CellOne and INC for each set bit, MSB to LSB, then negate if k < 0.
func (g *Generator) genLoadConst(k int64) {
	neg := k < 0
	abs := k
	if neg {
		abs = -k
	}

	g.b.Emit(asm.LOAD, int64(cellZero))
	for _, bit := range bitsMSBFirst(abs) {
		g.b.Emit(asm.SHIFT, int64(cellOne))
		if bit {
			g.b.Emit0(asm.INC)
		}
	}

	if neg {
		g.b.Emit(asm.STORE, int64(cellTempA))
		g.b.Emit(asm.LOAD, int64(cellZero))
		g.b.Emit(asm.SUB, int64(cellTempA))
	}
}

// bitsMSBFirst returns n's bits, most significant set bit first. n=0 yields
// an empty slice, leaving the accumulator at the 0 the loop started from.
func bitsMSBFirst(n int64) []bool {
	if n == 0 {
		return nil
	}
	u := uint64(n)
	var bits []bool
	started := false
	for i := 63; i >= 0; i-- {
		bit := (u>>uint(i))&1 == 1
		if !started && !bit {
			continue
		}
		started = true
		bits = append(bits, bit)
	}
	return bits
}

// genAddSub lowers Add/Sub: materialize B into scratch, A into the
// accumulator, then ADD/SUB against scratch. Uses cellTempD only: the IR
// lands array-element operands in cellTempA/cellTempB, so A may live there.
func (g *Generator) genAddSub(op opBinArgs, isSub bool) {
	g.genLoadOperand(op.B)
	g.b.Emit(asm.STORE, int64(cellTempD))
	g.genLoadOperand(op.A)
	if isSub {
		g.b.Emit(asm.SUB, int64(cellTempD))
	} else {
		g.b.Emit(asm.ADD, int64(cellTempD))
	}
	g.b.Emit(asm.STORE, int64(op.Dst))
}

// genAbsInPlace replaces the signed value in cell with its absolute value
// and records whether it was negative (1) or not (0) into signFlag.
func (g *Generator) genAbsInPlace(cell, signFlag uint64) {
	lNeg := g.newLabel()
	lPos := g.newLabel()
	lDone := g.newLabel()

	g.b.Emit(asm.LOAD, int64(cell))
	g.b.EmitJump(asm.JNEG, lNeg)
	g.b.EmitJump(asm.JUMP, lPos)

	g.b.Mark(lNeg)
	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.SUB, int64(cell))
	g.b.Emit(asm.STORE, int64(cell))
	g.b.Emit(asm.LOAD, int64(cellOne))
	g.b.Emit(asm.STORE, int64(signFlag))
	g.b.EmitJump(asm.JUMP, lDone)

	g.b.Mark(lPos)
	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.STORE, int64(signFlag))

	g.b.Mark(lDone)
}

// genNegate leaves -M(cell) in the accumulator.
func (g *Generator) genNegate(cell uint64) {
	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.SUB, int64(cell))
}
