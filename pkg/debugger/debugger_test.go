package debugger_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/debugger"
	"github.com/jakubdabek/gembiler/pkg/vm"
)

func program() []asm.Instruction {
	return []asm.Instruction{
		{Op: asm.INC},        // 0
		{Op: asm.STORE, Arg: 4}, // 1
		{Op: asm.INC},        // 2
		{Op: asm.ADD, Arg: 4},  // 3
		{Op: asm.PUT},        // 4
		{Op: asm.HALT},       // 5
	}
}

func TestStepAdvancesOneInstructionAtATime(t *testing.T) {
	machine := vm.New(program(), strings.NewReader(""))
	d := debugger.New(machine)

	require.NoError(t, d.Step())
	assert.True(t, d.IsPaused())
	assert.False(t, d.Finished())
	assert.Equal(t, int64(1), d.Snapshot().IP)
}

func TestContinueRunsToHalt(t *testing.T) {
	machine := vm.New(program(), strings.NewReader(""))
	d := debugger.New(machine)

	require.NoError(t, d.Continue())
	assert.True(t, d.Finished())
	assert.Equal(t, []int64{3}, d.Output())
}

func TestBreakpointPausesContinueBeforeHalt(t *testing.T) {
	machine := vm.New(program(), strings.NewReader(""))
	d := debugger.New(machine)
	d.SetBreakpoint(4)

	require.NoError(t, d.Continue())
	assert.True(t, d.IsPaused())
	assert.False(t, d.Finished())
	assert.Equal(t, int64(4), d.Snapshot().IP)

	require.NoError(t, d.Continue())
	assert.True(t, d.Finished())
}

func TestClearBreakpointLetsContinueRunToHalt(t *testing.T) {
	machine := vm.New(program(), strings.NewReader(""))
	d := debugger.New(machine)
	d.SetBreakpoint(4)
	assert.True(t, d.ClearBreakpoint(4))

	require.NoError(t, d.Continue())
	assert.True(t, d.Finished())
}

func TestPeekCellBeforeAndAfterWrite(t *testing.T) {
	machine := vm.New(program(), strings.NewReader(""))
	d := debugger.New(machine)

	_, ok := d.PeekCell(4)
	assert.False(t, ok)

	for !d.Finished() {
		require.NoError(t, d.Step())
	}
	v, ok := d.PeekCell(4)
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}
