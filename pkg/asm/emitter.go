package asm

import "strings"

// Emit renders a resolved instruction list as the textual assembler form of
// spec §6: one instruction per line, optional integer operand, no trailing
// comments.
func Emit(program []Instruction) string {
	var sb strings.Builder
	for _, in := range program {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
