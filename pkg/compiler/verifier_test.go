package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/compiler"
	"github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/parser"
)

func verify(t *testing.T, src string) *errors.Diagnostics {
	t.Helper()
	p := parser.NewParser(src)
	prog := p.Parse()
	require.Empty(t, p.Errors(), "source must parse cleanly")
	_, diags := compiler.Verify(prog)
	return diags
}

func firstCategory(t *testing.T, diags *errors.Diagnostics) errors.Category {
	t.Helper()
	require.True(t, diags.HasErrors())
	all := diags.All()
	require.NotEmpty(t, all)
	return all[0].Category
}

func TestVerifyAcceptsWellFormedProgram(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	READ n;
	WRITE n;
END`)
	assert.False(t, diags.HasErrors())
}

func TestVerifyRejectsUndeclaredName(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	WRITE m;
END`)
	assert.Equal(t, errors.UndeclaredName, firstCategory(t, diags))
}

func TestVerifyRejectsRedeclaration(t *testing.T) {
	diags := verify(t, `
DECLARE n, n BEGIN
	WRITE n;
END`)
	assert.Equal(t, errors.Redeclaration, firstCategory(t, diags))
}

func TestVerifyRejectsArrayUsedAsScalar(t *testing.T) {
	diags := verify(t, `
DECLARE t(0:3) BEGIN
	WRITE t;
END`)
	assert.Equal(t, errors.ArrayVsScalarMisuse, firstCategory(t, diags))
}

func TestVerifyRejectsScalarUsedAsArray(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	WRITE n(0);
END`)
	assert.Equal(t, errors.ArrayVsScalarMisuse, firstCategory(t, diags))
}

func TestVerifyRejectsBadArrayBounds(t *testing.T) {
	diags := verify(t, `
DECLARE t(3:0) BEGIN
	WRITE t(0);
END`)
	assert.Equal(t, errors.BadArrayBounds, firstCategory(t, diags))
}

func TestVerifyRejectsForIteratorWrite(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	FOR i FROM 1 TO 10 DO
		i ASSIGN 0;
	ENDFOR
END`)
	assert.Equal(t, errors.ForIteratorWrite, firstCategory(t, diags))
}

func TestVerifyAllowsIteratorNameReuseAfterLoopExits(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	FOR i FROM 1 TO 10 DO
		n ASSIGN n PLUS i;
	ENDFOR
	FOR i FROM 1 TO 5 DO
		n ASSIGN n PLUS i;
	ENDFOR
END`)
	assert.False(t, diags.HasErrors())
}

func TestVerifyRejectsLiteralReadTarget(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	READ 5;
END`)
	assert.Equal(t, errors.WriteToNonLvalue, firstCategory(t, diags))
}

func TestVerifyAccumulatesMultipleDiagnostics(t *testing.T) {
	diags := verify(t, `
DECLARE n BEGIN
	WRITE m;
	WRITE k;
END`)
	require.True(t, diags.HasErrors())
	assert.Len(t, diags.All(), 2)
}
