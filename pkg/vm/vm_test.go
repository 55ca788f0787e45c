package vm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/vm"
)

func TestRunReadAddWrite(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.GET},
		{Op: asm.STORE, Arg: 4},
		{Op: asm.GET},
		{Op: asm.ADD, Arg: 4},
		{Op: asm.PUT},
		{Op: asm.HALT},
	}
	machine := vm.New(program, strings.NewReader("3 4"))
	result, err := machine.Run()
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, result.Output)
}

func TestUninitializedReadIsARuntimeError(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.LOAD, Arg: 9},
		{Op: asm.PUT},
		{Op: asm.HALT},
	}
	machine := vm.New(program, strings.NewReader(""))
	_, err := machine.Run()
	require.Error(t, err)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "uninitialized read", rerr.Kind)
}

func TestOutOfRangeJumpIsARuntimeError(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.JUMP, Arg: 5},
		{Op: asm.HALT},
	}
	machine := vm.New(program, strings.NewReader(""))
	_, err := machine.Run()
	require.Error(t, err)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "out-of-range ip", rerr.Kind)
}

func TestAccumulatorStartsInitializedToZero(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.PUT},
		{Op: asm.HALT},
	}
	machine := vm.New(program, strings.NewReader(""))
	result, err := machine.Run()
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, result.Output)
}

func TestStepOnceMatchesRunForAShortProgram(t *testing.T) {
	program := []asm.Instruction{
		{Op: asm.INC},
		{Op: asm.INC},
		{Op: asm.PUT},
		{Op: asm.HALT},
	}
	machine := vm.New(program, strings.NewReader(""))
	for i := 0; i < 3; i++ {
		halted, err := machine.StepOnce()
		require.NoError(t, err)
		assert.False(t, halted)
	}
	halted, err := machine.StepOnce()
	require.NoError(t, err)
	assert.True(t, halted)
	assert.Equal(t, []int64{2}, machine.Output())
}

func TestPeekCellReportsUninitializedWithoutErroring(t *testing.T) {
	program := []asm.Instruction{{Op: asm.HALT}}
	machine := vm.New(program, strings.NewReader(""))
	_, ok := machine.PeekCell(42)
	assert.False(t, ok)
}
