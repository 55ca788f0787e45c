package codegen_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/codegen"
	"github.com/jakubdabek/gembiler/pkg/compiler"
	"github.com/jakubdabek/gembiler/pkg/ir"
	"github.com/jakubdabek/gembiler/pkg/parser"
	"github.com/jakubdabek/gembiler/pkg/vm"
)

// compileAndRun drives one source program through verify -> IR -> codegen ->
// VM, the same stages pkg/pipeline chains, but without its logging/metrics
// scaffolding so these table-driven cases stay cheap.
func compileAndRun(t *testing.T, src string, input string) []int64 {
	t.Helper()

	p := parser.NewParser(src)
	prog := p.Parse()
	require.Empty(t, p.Errors())

	symbols, diags := compiler.Verify(prog)
	require.False(t, diags.HasErrors(), "%v", diags)

	ops := ir.Build(symbols, prog.Commands)

	instrs, genErr := codegen.Generate(ops, symbols)
	require.Nil(t, genErr)

	machine := vm.New(instrs, strings.NewReader(input))
	result, err := machine.Run()
	require.NoError(t, err)
	return result.Output
}

func TestMultiplicationTemplate(t *testing.T) {
	const src = `
DECLARE a, b BEGIN
	READ a;
	READ b;
	WRITE a TIMES b;
END`
	cases := []struct{ a, b, want int64 }{
		{6, 7, 42},
		{-6, 7, -42},
		{6, -7, -42},
		{-6, -7, 42},
		{0, 9, 0},
		{1, 1, 1},
	}
	for _, c := range cases {
		out := compileAndRun(t, src, strconv.FormatInt(c.a, 10)+" "+strconv.FormatInt(c.b, 10))
		require.Equal(t, []int64{c.want}, out, "case %+v", c)
	}
}

func TestDivModZeroDivisorYieldsZero(t *testing.T) {
	const src = `
DECLARE a, b BEGIN
	READ a;
	READ b;
	WRITE a DIV b;
	WRITE a MOD b;
END`
	out := compileAndRun(t, src, "17 0")
	require.Equal(t, []int64{0, 0}, out)
}

func TestRelationalLowerings(t *testing.T) {
	const src = `
DECLARE a, b, r BEGIN
	READ a;
	READ b;
	r ASSIGN 0;
	IF a %s b THEN
		r ASSIGN 1;
	ENDIF
	WRITE r;
END`
	cases := []struct {
		op       string
		a, b     int64
		wantTrue bool
	}{
		{"EQ", 3, 3, true}, {"EQ", 3, 4, false},
		{"NEQ", 3, 4, true}, {"NEQ", 3, 3, false},
		{"LE", 3, 4, true}, {"LE", 4, 4, false}, {"LE", 5, 4, false},
		{"GE", 5, 4, true}, {"GE", 4, 4, false}, {"GE", 3, 4, false},
		{"LEQ", 4, 4, true}, {"LEQ", 3, 4, true}, {"LEQ", 5, 4, false},
		{"GEQ", 4, 4, true}, {"GEQ", 5, 4, true}, {"GEQ", 3, 4, false},
	}
	for _, c := range cases {
		source := strings.Replace(src, "%s", c.op, 1)
		out := compileAndRun(t, source, strconv.FormatInt(c.a, 10)+" "+strconv.FormatInt(c.b, 10))
		want := int64(0)
		if c.wantTrue {
			want = 1
		}
		require.Equal(t, []int64{want}, out, "case %+v", c)
	}
}

func TestArrayIndexingByNegativeBase(t *testing.T) {
	const src = `
DECLARE t(-5:-1) BEGIN
	READ t(-5);
	READ t(-1);
	WRITE t(-5) PLUS t(-1);
END`
	out := compileAndRun(t, src, "10 20")
	require.Equal(t, []int64{30}, out)
}
