package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/asm"
)

func TestResolveBindsLabelsToFinalIndices(t *testing.T) {
	b := asm.NewBuilder()
	skip := asm.LabelID(1)
	b.Emit(asm.LOAD, 4)
	b.EmitJump(asm.JPOS, skip)
	b.Emit0(asm.INC)
	b.Mark(skip)
	b.Emit0(asm.HALT)

	instrs, err := asm.Resolve(b)
	require.Nil(t, err)
	require.Len(t, instrs, 4)
	assert.Equal(t, asm.JPOS, instrs[1].Op)
	assert.Equal(t, int64(3), instrs[1].Arg, "jump must land on the HALT after the skipped INC")
}

func TestResolveRejectsUnresolvedLabel(t *testing.T) {
	b := asm.NewBuilder()
	b.EmitJump(asm.JUMP, asm.LabelID(99))
	b.Emit0(asm.HALT)

	_, err := asm.Resolve(b)
	require.NotNil(t, err)
}

func TestResolveRequiresTrailingHalt(t *testing.T) {
	b := asm.NewBuilder()
	b.Emit(asm.LOAD, 1)

	_, err := asm.Resolve(b)
	require.NotNil(t, err)
}

func TestEmitLoadRoundTrip(t *testing.T) {
	b := asm.NewBuilder()
	b.Emit(asm.LOAD, 4)
	b.Emit0(asm.INC)
	b.Emit(asm.STORE, 4)
	b.Emit0(asm.HALT)

	instrs, err := asm.Resolve(b)
	require.Nil(t, err)

	text := asm.Emit(instrs)
	reloaded, loadErr := asm.Load(text)
	require.NoError(t, loadErr)
	assert.Equal(t, instrs, reloaded)
}

func TestLoadRejectsUnknownOpcode(t *testing.T) {
	_, err := asm.Load("BOGUS 1\n")
	assert.Error(t, err)
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	text := "# a comment\nINC\n\nHALT # trailing\n"
	instrs, err := asm.Load(text)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, asm.INC, instrs[0].Op)
	assert.Equal(t, asm.HALT, instrs[1].Op)
}
