package codegen

import "github.com/jakubdabek/gembiler/pkg/asm"

// genMul lowers Mul via Russian peasant multiplication on absolute values,
// with sign correction applied once at the end (spec §4.4). Zero operands
// need no special-cased fast path: b = 0 makes the loop below exit
// immediately leaving the accumulating result at 0, and a = 0 just
// accumulates zero on every odd step.
//
// Scratch usage: cellTempA holds |a| then doubles each iteration; cellTempB
// holds |b| then halves each iteration; cellTempC accumulates the result;
// cellTempD/cellTempE hold the two sign flags; cellTempF/cellTempG are the
// parity-check halves; cellTempH is unused by this template.
func (g *Generator) genMul(args opBinArgs) {
	g.genLoadOperand(args.A)
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.genLoadOperand(args.B)
	g.b.Emit(asm.STORE, int64(cellTempB))

	g.genAbsInPlace(cellTempA, cellTempD)
	g.genAbsInPlace(cellTempB, cellTempE)

	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.STORE, int64(cellTempC)) // result accumulator

	lHead := g.newLabel()
	lBody := g.newLabel()
	lOdd := g.newLabel()
	lContinue := g.newLabel()
	lEnd := g.newLabel()

	g.b.Mark(lHead)
	g.b.Emit(asm.LOAD, int64(cellTempB))
	g.b.EmitJump(asm.JZERO, lEnd)
	g.b.EmitJump(asm.JUMP, lBody)

	g.b.Mark(lBody)
	// parity: half = b>>1 (floor); doubled = half*2; b is odd iff b != doubled
	g.b.Emit(asm.LOAD, int64(cellTempB))
	g.b.Emit(asm.SHIFT, int64(cellNegOne))
	g.b.Emit(asm.STORE, int64(cellTempF)) // half
	g.b.Emit(asm.SHIFT, int64(cellOne))
	g.b.Emit(asm.STORE, int64(cellTempG)) // doubled half
	g.b.Emit(asm.LOAD, int64(cellTempB))
	g.b.Emit(asm.SUB, int64(cellTempG))
	g.b.EmitJump(asm.JZERO, lContinue) // even: nothing to add
	g.b.EmitJump(asm.JUMP, lOdd)

	g.b.Mark(lOdd)
	g.b.Emit(asm.LOAD, int64(cellTempC))
	g.b.Emit(asm.ADD, int64(cellTempA))
	g.b.Emit(asm.STORE, int64(cellTempC))

	g.b.Mark(lContinue)
	g.b.Emit(asm.LOAD, int64(cellTempA))
	g.b.Emit(asm.SHIFT, int64(cellOne))
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.b.Emit(asm.LOAD, int64(cellTempF))
	g.b.Emit(asm.STORE, int64(cellTempB))
	g.b.EmitJump(asm.JUMP, lHead)

	g.b.Mark(lEnd)
	// sign = signA xor signB; both are 0/1 flags, so xor == (sum == 1)
	g.b.Emit(asm.LOAD, int64(cellTempD))
	g.b.Emit(asm.ADD, int64(cellTempE))
	lNeg := g.newLabel()
	lDone := g.newLabel()
	g.b.Emit(asm.SUB, int64(cellOne))
	g.b.EmitJump(asm.JZERO, lNeg)
	g.b.EmitJump(asm.JUMP, lDone)

	g.b.Mark(lNeg)
	g.genNegate(cellTempC)
	g.b.Emit(asm.STORE, int64(cellTempC))

	g.b.Mark(lDone)
	g.b.Emit(asm.LOAD, int64(cellTempC))
	g.b.Emit(asm.STORE, int64(args.Dst))
}

// genDivMod lowers Div/Mod via long division of absolute values, aligning
// the divisor by repeated doubling then consuming it back down one bit at a
// time (spec §4.4). Sign correction yields floor semantics: when the
// operands' signs differ and the remainder is non-zero, the quotient is
// decremented and the remainder is nudged by the (signed) divisor.
//
// Scratch usage: cellTempA = |a| (then the truncated/final quotient);
// cellTempB = |b|; cellTempC = remainder (then the truncated/final
// remainder); cellTempD/cellTempE = sign flags for a/b; cellTempF = the
// aligned divisor; cellTempG = the original signed b; cellTempH = quotient.
func (g *Generator) genDivMod(args opBinArgs, wantMod bool) {
	g.genLoadOperand(args.A)
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.genLoadOperand(args.B)
	g.b.Emit(asm.STORE, int64(cellTempG)) // preserve original signed b

	lZero := g.newLabel()
	lNonZero := g.newLabel()
	lSkip := g.newLabel()

	g.b.Emit(asm.LOAD, int64(cellTempG))
	g.b.EmitJump(asm.JZERO, lZero)
	g.b.EmitJump(asm.JUMP, lNonZero)

	g.b.Mark(lZero)
	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.STORE, int64(args.Dst))
	g.b.EmitJump(asm.JUMP, lSkip)

	g.b.Mark(lNonZero)
	g.b.Emit(asm.LOAD, int64(cellTempG))
	g.b.Emit(asm.STORE, int64(cellTempB))

	g.genAbsInPlace(cellTempA, cellTempD)
	g.genAbsInPlace(cellTempB, cellTempE)

	// Phase 1: align the divisor by doubling until it strictly exceeds |a|.
	g.b.Emit(asm.LOAD, int64(cellTempB))
	g.b.Emit(asm.STORE, int64(cellTempF))
	lAlignHead := g.newLabel()
	lAlignBody := g.newLabel()
	lAlignDone := g.newLabel()
	g.b.Mark(lAlignHead)
	g.b.Emit(asm.LOAD, int64(cellTempF))
	g.b.Emit(asm.SUB, int64(cellTempA))
	g.b.EmitJump(asm.JPOS, lAlignDone) // aligned > |a|
	g.b.EmitJump(asm.JUMP, lAlignBody)
	g.b.Mark(lAlignBody)
	g.b.Emit(asm.LOAD, int64(cellTempF))
	g.b.Emit(asm.SHIFT, int64(cellOne))
	g.b.Emit(asm.STORE, int64(cellTempF))
	g.b.EmitJump(asm.JUMP, lAlignHead)
	g.b.Mark(lAlignDone)

	// Phase 2: refine. remainder := |a|; quotient := 0.
	g.b.Emit(asm.LOAD, int64(cellTempA))
	g.b.Emit(asm.STORE, int64(cellTempC))
	g.b.Emit(asm.LOAD, int64(cellZero))
	g.b.Emit(asm.STORE, int64(cellTempH))

	lHead := g.newLabel()
	lBody := g.newLabel()
	lCanSub := g.newLabel()
	lCannotSub := g.newLabel()
	lNext := g.newLabel()
	lRefineDone := g.newLabel()

	g.b.Mark(lHead)
	g.b.Emit(asm.LOAD, int64(cellTempF))
	g.b.Emit(asm.SUB, int64(cellTempB))
	g.b.EmitJump(asm.JPOS, lBody) // aligned divisor still > original |b|
	g.b.EmitJump(asm.JUMP, lRefineDone)

	g.b.Mark(lBody)
	g.b.Emit(asm.LOAD, int64(cellTempF))
	g.b.Emit(asm.SHIFT, int64(cellNegOne))
	g.b.Emit(asm.STORE, int64(cellTempF))
	g.b.Emit(asm.LOAD, int64(cellTempH))
	g.b.Emit(asm.SHIFT, int64(cellOne))
	g.b.Emit(asm.STORE, int64(cellTempH))

	g.b.Emit(asm.LOAD, int64(cellTempC))
	g.b.Emit(asm.SUB, int64(cellTempF))
	g.b.EmitJump(asm.JNEG, lCannotSub)
	g.b.EmitJump(asm.JUMP, lCanSub)

	g.b.Mark(lCanSub)
	g.b.Emit(asm.STORE, int64(cellTempC)) // acc already holds remainder - aligned
	g.b.Emit(asm.LOAD, int64(cellTempH))
	g.b.Emit0(asm.INC)
	g.b.Emit(asm.STORE, int64(cellTempH))
	g.b.EmitJump(asm.JUMP, lNext)

	g.b.Mark(lCannotSub)
	g.b.EmitJump(asm.JUMP, lNext)

	g.b.Mark(lNext)
	g.b.EmitJump(asm.JUMP, lHead)

	g.b.Mark(lRefineDone)
	// |quotient| is in cellTempH and |remainder| in cellTempC; the branches
	// below leave the signed truncated quotient in cellTempA.
	lSameSign := g.newLabel()
	lDiffSign := g.newLabel()
	lSignDone := g.newLabel()
	g.b.Emit(asm.LOAD, int64(cellTempD))
	g.b.Emit(asm.SUB, int64(cellTempE))
	g.b.EmitJump(asm.JZERO, lSameSign)
	g.b.EmitJump(asm.JUMP, lDiffSign)

	g.b.Mark(lSameSign)
	g.b.Emit(asm.LOAD, int64(cellTempH))
	g.b.Emit(asm.STORE, int64(cellTempA)) // truncated quotient = quotient_abs
	g.b.Emit(asm.LOAD, int64(cellTempD))
	lARemNonNeg := g.newLabel()
	g.b.EmitJump(asm.JZERO, lARemNonNeg) // signA == 0: remainder stays positive
	g.genNegate(cellTempC)
	g.b.Emit(asm.STORE, int64(cellTempC))
	g.b.EmitJump(asm.JUMP, lSignDone)
	g.b.Mark(lARemNonNeg)
	g.b.EmitJump(asm.JUMP, lSignDone)

	g.b.Mark(lDiffSign)
	g.genNegate(cellTempH)
	g.b.Emit(asm.STORE, int64(cellTempA)) // truncated quotient = -quotient_abs
	g.b.Emit(asm.LOAD, int64(cellTempD))
	lBRemNonNeg := g.newLabel()
	g.b.EmitJump(asm.JZERO, lBRemNonNeg)
	g.genNegate(cellTempC)
	g.b.Emit(asm.STORE, int64(cellTempC))
	g.b.EmitJump(asm.JUMP, lSignDone)
	g.b.Mark(lBRemNonNeg)
	g.b.EmitJump(asm.JUMP, lSignDone)

	g.b.Mark(lSignDone)
	// Floor correction: if signs differ and the (truncated) remainder is
	// non-zero, quotient -= 1 and remainder += original signed b.
	lRemZero := g.newLabel()
	lRemNonZero := g.newLabel()
	lCorrected := g.newLabel()
	lDiffSign2 := g.newLabel()
	g.b.Emit(asm.LOAD, int64(cellTempD))
	g.b.Emit(asm.SUB, int64(cellTempE))
	g.b.EmitJump(asm.JZERO, lCorrected) // same sign: no floor correction needed
	g.b.EmitJump(asm.JUMP, lDiffSign2)

	g.b.Mark(lDiffSign2)
	g.b.Emit(asm.LOAD, int64(cellTempC))
	g.b.EmitJump(asm.JZERO, lRemZero)
	g.b.EmitJump(asm.JUMP, lRemNonZero)

	g.b.Mark(lRemNonZero)
	g.b.Emit(asm.LOAD, int64(cellTempA))
	g.b.Emit0(asm.DEC)
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.b.Emit(asm.LOAD, int64(cellTempC))
	g.b.Emit(asm.ADD, int64(cellTempG))
	g.b.Emit(asm.STORE, int64(cellTempC))
	g.b.EmitJump(asm.JUMP, lCorrected)

	g.b.Mark(lRemZero)
	g.b.EmitJump(asm.JUMP, lCorrected)

	g.b.Mark(lCorrected)
	if wantMod {
		g.b.Emit(asm.LOAD, int64(cellTempC))
	} else {
		g.b.Emit(asm.LOAD, int64(cellTempA))
	}
	g.b.Emit(asm.STORE, int64(args.Dst))

	g.b.Mark(lSkip)
}
