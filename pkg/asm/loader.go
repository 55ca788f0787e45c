package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Load parses the textual assembler grammar of spec §6 back into a resolved
// instruction list. It exists for the round-trip testable property
// (parse(emit(assemble(compile(P)))) = assemble(compile(P))) and for the VM
// loader external collaborator to build on; it performs no label resolution
// of its own; the text it reads already carries resolved integer addresses.
func Load(text string) ([]Instruction, error) {
	var program []Instruction
	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := stripComment(rawLine)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		opName := fields[0]
		op, ok := opcodeByName[opName]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown opcode %q", lineNo+1, opName)
		}
		in := Instruction{Op: op}
		if op.HasOperand() {
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: %s requires one integer operand", lineNo+1, opName)
			}
			arg, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad operand %q: %w", lineNo+1, fields[1], err)
			}
			in.Arg = arg
		} else if len(fields) != 1 {
			return nil, fmt.Errorf("line %d: %s takes no operand", lineNo+1, opName)
		}
		program = append(program, in)
	}
	return program, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}
