package pipeline_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/interp"
	"github.com/jakubdabek/gembiler/pkg/logging"
	"github.com/jakubdabek/gembiler/pkg/parser"
	"github.com/jakubdabek/gembiler/pkg/pipeline"
	"github.com/jakubdabek/gembiler/pkg/vm"
)

// runBoth compiles source through the full pipeline, executes it on the VM,
// and separately runs the same source through the tree-walking interpreter,
// asserting both produce identical output for the given input.
func runBoth(t *testing.T, source string, input string) []int64 {
	t.Helper()

	log, err := logging.New(logging.Config{MinLevel: logging.ERROR, Format: logging.TextFormat})
	require.NoError(t, err)
	defer log.Close()

	cc := pipeline.New(context.Background(), log, nil, nil)
	result, diags, err := cc.Compile(source)
	require.NoError(t, err, "compile error: %v", diags)
	require.NotNil(t, result)

	machine := vm.New(result.Instructions, strings.NewReader(input))
	vmResult, err := machine.Run()
	require.NoError(t, err)

	p := parser.NewParser(source)
	astProg := p.Parse()
	require.Empty(t, p.Errors())

	interpResult, err := interp.Run(astProg, strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, interpResult.Output, vmResult.Output, "vm and interpreter diverged")
	return vmResult.Output
}

func ints(vals ...int64) []int64 { return vals }

func TestSquare(t *testing.T) {
	const src = `
DECLARE n BEGIN
	READ n;
	WRITE n TIMES n;
END`
	cases := []struct {
		in   int64
		want int64
	}{
		{7, 49},
		{-3, 9},
		{0, 0},
	}
	for _, c := range cases {
		out := runBoth(t, src, strconv.FormatInt(c.in, 10))
		require.Equal(t, ints(c.want), out)
	}
}

func TestFloorDivModSigns(t *testing.T) {
	const src = `
DECLARE a, b BEGIN
	READ a;
	READ b;
	WRITE a DIV b;
	WRITE a MOD b;
END`
	cases := []struct {
		a, b, q, r int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -4, 1},
		{7, -2, -4, -1},
		{-7, -2, 3, -1},
		{5, 0, 0, 0},
	}
	for _, c := range cases {
		out := runBoth(t, src, strconv.FormatInt(c.a, 10)+" "+strconv.FormatInt(c.b, 10))
		require.Equal(t, ints(c.q, c.r), out)
	}
}

func TestArraySumNegativeBase(t *testing.T) {
	const src = `
DECLARE t(-3:3), i, sum BEGIN
	i ASSIGN -3;
	WHILE i LEQ 3 DO
		READ t(i);
		i ASSIGN i PLUS 1;
	ENDWHILE
	sum ASSIGN 0;
	i ASSIGN -3;
	WHILE i LEQ 3 DO
		sum ASSIGN sum PLUS t(i);
		i ASSIGN i PLUS 1;
	ENDWHILE
	WRITE sum;
END`
	out := runBoth(t, src, "1 2 3 4 5 6 7")
	require.Equal(t, ints(28), out)
}

func TestForBoundsFrozenAtEntry(t *testing.T) {
	const src = `
DECLARE hi BEGIN
	hi ASSIGN 3;
	FOR i FROM 1 TO hi DO
		hi ASSIGN hi PLUS 10;
		WRITE i;
	ENDFOR
	WRITE hi;
END`
	out := runBoth(t, src, "")
	require.Equal(t, ints(1, 2, 3, 33), out)
}

func TestPowerBySquaringWhile(t *testing.T) {
	const src = `
DECLARE base, exp, result, bit BEGIN
	READ base;
	READ exp;
	result ASSIGN 1;
	WHILE exp GEQ 1 DO
		bit ASSIGN exp MOD 2;
		IF bit EQ 1 THEN
			result ASSIGN result TIMES base;
		ENDIF
		base ASSIGN base TIMES base;
		exp ASSIGN exp DIV 2;
	ENDWHILE
	WRITE result;
END`
	out := runBoth(t, src, "2 10")
	require.Equal(t, ints(1024), out)
}

func TestDoWhileRunsOnceBeforeCheck(t *testing.T) {
	const src = `
DECLARE n, count BEGIN
	READ n;
	count ASSIGN 0;
	DO
		count ASSIGN count PLUS 1;
	WHILE count LE n ENDDO
	WRITE count;
END`
	out := runBoth(t, src, "0")
	require.Equal(t, ints(1), out)

	out = runBoth(t, src, "3")
	require.Equal(t, ints(3), out)
}

func TestResolvedProgramRoundTripsThroughTextForm(t *testing.T) {
	const src = `
DECLARE n BEGIN
	READ n;
	WRITE n TIMES n;
END`
	log, err := logging.New(logging.Config{MinLevel: logging.ERROR, Format: logging.TextFormat})
	require.NoError(t, err)
	defer log.Close()

	cc := pipeline.New(context.Background(), log, nil, nil)
	result, diags, err := cc.Compile(src)
	require.NoError(t, err, "compile error: %v", diags)

	reloaded, err := asm.Load(result.Assembly)
	require.NoError(t, err)
	require.Equal(t, result.Instructions, reloaded)
}
