package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/errors"
)

func TestDeclareScalarAllocatesAboveScratchPool(t *testing.T) {
	st := NewSymbolTable()
	sym, err := st.DeclareScalar("n")
	require.Nil(t, err)
	assert.Equal(t, uint64(ScratchSize+1), sym.Cell)

	sym2, err := st.DeclareScalar("m")
	require.Nil(t, err)
	assert.Equal(t, uint64(ScratchSize+2), sym2.Cell)
}

func TestDeclareScalarRejectsRedeclaration(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareScalar("n")
	require.Nil(t, err)

	_, err = st.DeclareScalar("n")
	require.NotNil(t, err)
	assert.Equal(t, errors.Redeclaration, err.Category)
}

func TestDeclareArrayAllocatesElementsPlusOffsetCell(t *testing.T) {
	st := NewSymbolTable()
	sym, err := st.DeclareArray("t", -3, 3)
	require.Nil(t, err)
	assert.Equal(t, uint64(ScratchSize+1), sym.CellBase)
	assert.Equal(t, uint64(7), sym.Length())
	assert.Equal(t, uint64(ScratchSize+1+7), sym.OffsetCell)
}

func TestDeclareArrayRejectsInvertedBounds(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareArray("t", 3, -3)
	require.NotNil(t, err)
	assert.Equal(t, errors.BadArrayBounds, err.Category)
}

func TestForIteratorScopeResolvesThenPops(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareScalar("total")
	require.Nil(t, err)

	iterCell, boundCell, err := st.EnterFor("i", Up)
	require.Nil(t, err)
	assert.NotEqual(t, iterCell, boundCell)

	sym, ok := st.Resolve("i")
	require.True(t, ok)
	assert.Equal(t, KindForIterator, sym.Kind)
	assert.True(t, sym.Immutable)

	st.LeaveFor()
	_, ok = st.Resolve("i")
	assert.False(t, ok, "iterator must not be visible once its FOR scope is popped")
}

func TestForIteratorRejectsNameCollision(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareScalar("i")
	require.Nil(t, err)

	_, _, err = st.EnterFor("i", Up)
	require.NotNil(t, err)
	assert.Equal(t, errors.Redeclaration, err.Category)
}

func TestAddrOfScalarRejectsArrayName(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.DeclareArray("t", 0, 2)
	require.Nil(t, err)

	_, ok := st.AddrOfScalar("t")
	assert.False(t, ok)

	_, ok = st.AddrBaseOfArray("t")
	assert.True(t, ok)
}
