// Package interp is a tree-walking reference interpreter over pkg/ast. It
// exists purely as the oracle for the semantics-preservation property (spec
// §8): running the compiled program on pkg/vm with input I must produce the
// same output stream as this interpreter run directly on the source AST
// with the same I. It shares no code with pkg/ir/pkg/codegen so a bug in one
// does not silently cancel a bug in the other.
package interp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jakubdabek/gembiler/pkg/ast"
)

// array is one array variable's backing storage, indexed by its declared
// (possibly negative) lower bound rather than from zero.
type array struct {
	lo, hi int64
	data   []int64
}

func newArray(lo, hi int64) *array {
	return &array{lo: lo, hi: hi, data: make([]int64, hi-lo+1)}
}

func (a *array) get(idx int64) int64  { return a.data[idx-a.lo] }
func (a *array) set(idx int64, v int64) { a.data[idx-a.lo] = v }

// Result is what a completed Run produced.
type Result struct {
	Output []int64
}

// Interp holds the interpreter's flat variable environment. Scalars and FOR
// iterators share one map; arrays live in a separate one, mirroring the two
// symbol kinds the verifier distinguishes.
type Interp struct {
	scalars map[string]int64
	arrays  map[string]*array
	in      *bufio.Scanner
	out     []int64
}

// Run interprets prog against input stream in, returning every value WRITE
// produced, in order.
func Run(prog *ast.Program, in io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	it := &Interp{
		scalars: make(map[string]int64),
		arrays:  make(map[string]*array),
		in:      scanner,
	}

	for _, d := range prog.Declarations {
		switch dd := d.(type) {
		case *ast.ScalarDecl:
			it.scalars[dd.Ident] = 0
		case *ast.ArrayDecl:
			it.arrays[dd.Ident] = newArray(dd.Lo, dd.Hi)
		}
	}

	if err := it.execCommands(prog.Commands); err != nil {
		return nil, err
	}
	return &Result{Output: it.out}, nil
}

func (it *Interp) execCommands(cmds []ast.Command) error {
	for _, c := range cmds {
		if err := it.execCommand(c); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) execCommand(c ast.Command) error {
	switch cc := c.(type) {
	case *ast.AssignCmd:
		v := it.evalExpr(cc.Expr)
		it.store(cc.Target, v)
	case *ast.IfCmd:
		if it.evalCond(cc.Cond) {
			return it.execCommands(cc.Then)
		}
		return it.execCommands(cc.Else)
	case *ast.WhileCmd:
		for it.evalCond(cc.Cond) {
			if err := it.execCommands(cc.Body); err != nil {
				return err
			}
		}
	case *ast.DoWhileCmd:
		for {
			if err := it.execCommands(cc.Body); err != nil {
				return err
			}
			if !it.evalCond(cc.Cond) {
				break
			}
		}
	case *ast.ForCmd:
		return it.execFor(cc)
	case *ast.ReadCmd:
		v, err := it.scanInt()
		if err != nil {
			return err
		}
		it.store(cc.Target, v)
	case *ast.WriteCmd:
		it.out = append(it.out, it.evalExpr(cc.Expr))
	}
	return nil
}

// execFor freezes both bounds once at entry, exactly like pkg/ir.lowerFor,
// so assigning to a variable a bound was read from inside the body does not
// change the trip count.
func (it *Interp) execFor(c *ast.ForCmd) error {
	from := it.evalValue(c.From)
	to := it.evalValue(c.To)

	saved, hadSaved := it.scalars[c.Iterator]
	it.scalars[c.Iterator] = from

	for {
		i := it.scalars[c.Iterator]
		if c.Down {
			if i < to {
				break
			}
		} else if i > to {
			break
		}
		if err := it.execCommands(c.Body); err != nil {
			return err
		}
		if c.Down {
			it.scalars[c.Iterator]--
		} else {
			it.scalars[c.Iterator]++
		}
	}

	if hadSaved {
		it.scalars[c.Iterator] = saved
	} else {
		delete(it.scalars, c.Iterator)
	}
	return nil
}

func (it *Interp) store(lv ast.LValue, v int64) {
	if !lv.IsArray {
		it.scalars[lv.Name] = v
		return
	}
	idx := lv.IndexNum
	if lv.IndexKind == ast.ValIdent {
		idx = it.scalars[lv.IndexName]
	}
	it.arrays[lv.Name].set(idx, v)
}

func (it *Interp) evalValue(v ast.Value) int64 {
	switch v.Kind {
	case ast.ValNum:
		return v.Num
	case ast.ValIdent:
		return it.scalars[v.Name]
	case ast.ValArrayByNum:
		return it.arrays[v.Name].get(v.Num)
	case ast.ValArrayByIdent:
		return it.arrays[v.Name].get(it.scalars[v.IndexName])
	}
	panic("interp: unreachable value kind")
}

func (it *Interp) evalExpr(e ast.Expr) int64 {
	if !e.IsBinary {
		return it.evalValue(e.Value)
	}
	a := it.evalValue(e.Left)
	b := it.evalValue(e.Right)
	switch e.Op {
	case ast.OpPlus:
		return a + b
	case ast.OpMinus:
		return a - b
	case ast.OpTimes:
		return a * b
	case ast.OpDiv:
		return floorDiv(a, b)
	case ast.OpMod:
		return floorMod(a, b)
	}
	panic("interp: unreachable bin op")
}

func (it *Interp) evalCond(c ast.Condition) bool {
	a := it.evalValue(c.Left)
	b := it.evalValue(c.Right)
	switch c.Op {
	case ast.RelEq:
		return a == b
	case ast.RelNeq:
		return a != b
	case ast.RelLt:
		return a < b
	case ast.RelGt:
		return a > b
	case ast.RelLe:
		return a <= b
	case ast.RelGe:
		return a >= b
	}
	panic("interp: unreachable rel op")
}

// floorDiv/floorMod match the zero-divisor invariant and the floor rounding
// the generator's division template implements in pkg/codegen/muldiv.go,
// rather than Go's truncating "/" and "%".
func floorDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func (it *Interp) scanInt() (int64, error) {
	if !it.in.Scan() {
		if err := it.in.Err(); err != nil {
			return 0, fmt.Errorf("interp: reading READ operand: %w", err)
		}
		return 0, fmt.Errorf("interp: READ with no more input available")
	}
	var v int64
	if _, err := fmt.Sscanf(it.in.Text(), "%d", &v); err != nil {
		return 0, fmt.Errorf("interp: malformed READ operand %q: %w", it.in.Text(), err)
	}
	return v, nil
}
