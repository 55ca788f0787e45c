package formatter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/formatter"
)

func TestPrettyAnnotatesJumpTargets(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.LOAD, Arg: 4},
		{Op: asm.JPOS, Arg: 3},
		{Op: asm.INC},
		{Op: asm.HALT},
	}
	out := formatter.Pretty(program)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[1], "JPOS")
	assert.Contains(t, lines[1], "-> 3")
	assert.NotContains(t, lines[0], "->")
}

func TestPrettyEmptyProgram(t *testing.T) {
	assert.Equal(t, "", formatter.Pretty(nil))
}
