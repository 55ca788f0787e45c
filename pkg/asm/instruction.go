// Package asm defines the target instruction set (spec §6), the two-pass
// label resolver that turns a generator's symbolic instruction stream into
// addressed code, and the textual emitter/loader for that code.
package asm

import "fmt"

// Opcode is one VM instruction (spec §3, §6).
type Opcode int

const (
	GET Opcode = iota
	PUT
	LOAD
	STORE
	LOADI
	STOREI
	ADD
	SUB
	SHIFT
	INC
	DEC
	JUMP
	JPOS
	JZERO
	JNEG
	HALT
)

var opcodeNames = map[Opcode]string{
	GET: "GET", PUT: "PUT", LOAD: "LOAD", STORE: "STORE",
	LOADI: "LOADI", STOREI: "STOREI", ADD: "ADD", SUB: "SUB",
	SHIFT: "SHIFT", INC: "INC", DEC: "DEC",
	JUMP: "JUMP", JPOS: "JPOS", JZERO: "JZERO", JNEG: "JNEG", HALT: "HALT",
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// HasOperand reports whether op takes an integer operand in the grammar of
// spec §6 (op1 vs op0).
func (o Opcode) HasOperand() bool {
	switch o {
	case GET, PUT, INC, DEC, HALT:
		return false
	default:
		return true
	}
}

// Instruction is a fully resolved instruction: every jump target is a
// concrete index into the final program.
type Instruction struct {
	Op  Opcode
	Arg int64
}

func (in Instruction) String() string {
	if in.Op.HasOperand() {
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	}
	return in.Op.String()
}
