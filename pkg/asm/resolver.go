package asm

import "github.com/jakubdabek/gembiler/pkg/errors"

// LabelID is an opaque label handle, minted by the code generator from the
// IR builder's ir.Label values. The resolver never interprets it beyond
// equality; it only needs a stable key to bind to an instruction index.
type LabelID int

// PendingOp is one entry of the generator's un-resolved output stream: either
// a real instruction (whose jump target, if any, is still a LabelID) or a
// LabelMark pseudo-op that the resolver consumes without advancing the
// instruction index (spec §9 "labels as arena indices").
type PendingOp struct {
	IsLabelMark bool
	Mark        LabelID

	Instr      Instruction
	IsJump     bool // Arg is meaningless until resolved; Target names the label
	Target     LabelID
}

// Builder accumulates a PendingOp stream during code generation.
type Builder struct {
	ops []PendingOp
}

// NewBuilder creates an empty instruction builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends a fully concrete instruction (no jump target to resolve).
func (b *Builder) Emit(op Opcode, arg int64) {
	b.ops = append(b.ops, PendingOp{Instr: Instruction{Op: op, Arg: arg}})
}

// Emit0 appends an operand-less instruction.
func (b *Builder) Emit0(op Opcode) {
	b.Emit(op, 0)
}

// EmitJump appends a jump-family instruction whose operand is a label,
// resolved later.
func (b *Builder) EmitJump(op Opcode, target LabelID) {
	b.ops = append(b.ops, PendingOp{Instr: Instruction{Op: op}, IsJump: true, Target: target})
}

// Mark records that LabelID l names the instruction position about to be
// emitted next.
func (b *Builder) Mark(l LabelID) {
	b.ops = append(b.ops, PendingOp{IsLabelMark: true, Mark: l})
}

// Len returns the number of PendingOps recorded so far (instructions plus
// label marks); used by callers that need to reference "the next emitted
// instruction's position" before resolution.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Resolve runs the two-pass backpatch: first assigning each real instruction
// its final index and recording every label's resolved index, then
// rewriting every jump's Arg to its target's resolved index.
func Resolve(b *Builder) ([]Instruction, *errors.InternalError) {
	positions := make(map[LabelID]int64)
	instrs := make([]Instruction, 0, len(b.ops))

	for _, op := range b.ops {
		if op.IsLabelMark {
			positions[op.Mark] = int64(len(instrs))
			continue
		}
		instrs = append(instrs, op.Instr)
	}

	idx := 0
	for _, op := range b.ops {
		if op.IsLabelMark {
			continue
		}
		if op.IsJump {
			target, ok := positions[op.Target]
			if !ok {
				return nil, errors.NewInternal("resolver", "unresolved label %d referenced by instruction %d", op.Target, idx)
			}
			instrs[idx].Arg = target
		}
		idx++
	}

	if len(instrs) == 0 || instrs[len(instrs)-1].Op != HALT {
		return nil, errors.NewInternal("resolver", "program does not end in HALT")
	}
	for i, in := range instrs {
		if in.Op == JUMP || in.Op == JPOS || in.Op == JZERO || in.Op == JNEG {
			if in.Arg < 0 || in.Arg >= int64(len(instrs)) {
				return nil, errors.NewInternal("resolver", "instruction %d jumps to out-of-range target %d", i, in.Arg)
			}
		}
	}

	return instrs, nil
}
