// Package formatter pretty-prints emitted assembler text into aligned
// columns: an instruction index gutter, the opcode, its operand, and an
// optional trailing comment, matching the reference formatter's
// token-alignment approach.
package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakubdabek/gembiler/pkg/asm"
)

// Pretty renders program as column-aligned assembler text: one line per
// instruction, its index right-justified in a fixed-width gutter, the opcode
// padded to the widest opcode, then the operand unpadded.
func Pretty(program []asm.Instruction) string {
	if len(program) == 0 {
		return ""
	}

	gutterWidth := len(strconv.Itoa(len(program) - 1))
	opWidth := 0
	for _, in := range program {
		if n := len(in.Op.String()); n > opWidth {
			opWidth = n
		}
	}

	var sb strings.Builder
	for i, in := range program {
		fmt.Fprintf(&sb, "%*d: %-*s", gutterWidth, i, opWidth, in.Op.String())
		if in.Op.HasOperand() {
			fmt.Fprintf(&sb, " %d", in.Arg)
		}
		if isJump(in.Op) {
			fmt.Fprintf(&sb, "  # -> %d", in.Arg)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func isJump(op asm.Opcode) bool {
	switch op {
	case asm.JUMP, asm.JPOS, asm.JZERO, asm.JNEG:
		return true
	default:
		return false
	}
}
