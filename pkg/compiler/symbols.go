// Package compiler implements the symbol table and semantic verifier that
// sit between the parser and the IR builder (spec §4.1, §4.2).
package compiler

import (
	"github.com/jakubdabek/gembiler/pkg/errors"
)

// Reserved scratch cells. Cell 0 is the VM accumulator and is never
// allocated to a symbol. Cells 1..ScratchSize are statically partitioned
// among the code generator's arithmetic templates (spec §4.4, §9 "scratch
// cells are statically partitioned per lowering template"); user symbols are
// allocated starting at ScratchSize+1.
const (
	AccumulatorCell = 0

	CellOne    = 1 // holds constant 1, used to double a value via SHIFT
	CellZero   = 2 // holds constant 0
	CellNegOne = 3 // holds constant -1, used for arithmetic right shift

	// General-purpose scratch used by the arithmetic/comparison/array
	// lowering templates in pkg/codegen. Each template documents which of
	// these it touches; none persist a value across template boundaries.
	CellTempA = 4
	CellTempB = 5
	CellTempC = 6
	CellTempD = 7
	CellTempE = 8
	CellTempF = 9
	CellTempG = 10
	CellTempH = 11

	ScratchSize = 11 // cells 1..11 reserved; first user cell is 12
)

// SymbolKind distinguishes the three symbol shapes of spec §3.
type SymbolKind int

const (
	KindScalar SymbolKind = iota
	KindArray
	KindForIterator
)

// Direction is a FOR loop's counting direction.
type Direction int

const (
	Up Direction = iota
	Down
)

// Symbol is a resolved name: a scalar cell, an array's base cell plus its
// index range, or a FOR loop's iterator/bound cell pair.
type Symbol struct {
	Name string
	Kind SymbolKind

	Cell uint64 // KindScalar, KindForIterator: the cell holding the value

	CellBase uint64 // KindArray: base cell of the element range
	IndexLo  int64  // KindArray
	IndexHi  int64  // KindArray
	OffsetCell uint64 // KindArray: cell holding CellBase - IndexLo (spec §3)

	BoundCell uint64    // KindForIterator: the frozen loop-bound cell
	Direction Direction // KindForIterator
	Immutable bool      // KindForIterator: always true
}

// Length returns an array symbol's element count.
func (s *Symbol) Length() uint64 {
	return uint64(s.IndexHi-s.IndexLo) + 1
}

// scope is one level of the lexical scope stack: a flat map from name to
// symbol. The outermost scope is the program's DECLARE block; each FOR
// pushes a child scope holding only its iterator (spec §9: "a stack of maps
// from name to symbol id, not lexical nesting of objects").
type scope struct {
	symbols map[string]*Symbol
}

func newScope() *scope {
	return &scope{symbols: make(map[string]*Symbol)}
}

// SymbolTable resolves source names to VM cell addresses and owns cell
// allocation. Allocation is first-fit, monotonically increasing, and never
// reclaimed: the program is compiled once (spec §4.1).
type SymbolTable struct {
	scopes  []*scope
	nextCell uint64
}

// NewSymbolTable creates an empty table with the outermost (DECLARE) scope
// already pushed and the scratch pool reserved.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{nextCell: ScratchSize + 1}
	st.scopes = []*scope{newScope()}
	return st
}

func (st *SymbolTable) top() *scope {
	return st.scopes[len(st.scopes)-1]
}

// lookupAnyScope reports whether name is already visible in any live scope,
// innermost first. Shadowing is never permitted (spec §3).
func (st *SymbolTable) lookupAnyScope(name string) (*Symbol, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

func (st *SymbolTable) alloc(n uint64) uint64 {
	cell := st.nextCell
	st.nextCell += n
	return cell
}

// DeclareScalar allocates one cell for name. Fails if name is already bound
// in any live scope.
func (st *SymbolTable) DeclareScalar(name string) (*Symbol, *errors.CompileError) {
	if _, ok := st.lookupAnyScope(name); ok {
		return nil, &errors.CompileError{
			Category: errors.Redeclaration,
			Message:  "name already declared",
			Name:     name,
		}
	}
	sym := &Symbol{Name: name, Kind: KindScalar, Cell: st.alloc(1)}
	st.top().symbols[name] = sym
	return sym, nil
}

// DeclareArray allocates Length() consecutive cells plus one offset cell.
// Fails if name is already bound, or if lo > hi (spec: BadArrayBounds).
func (st *SymbolTable) DeclareArray(name string, lo, hi int64) (*Symbol, *errors.CompileError) {
	if _, ok := st.lookupAnyScope(name); ok {
		return nil, &errors.CompileError{
			Category: errors.Redeclaration,
			Message:  "name already declared",
			Name:     name,
		}
	}
	if lo > hi {
		return nil, &errors.CompileError{
			Category: errors.BadArrayBounds,
			Message:  "array lower bound exceeds upper bound",
			Name:     name,
		}
	}
	length := uint64(hi-lo) + 1
	base := st.alloc(length)
	offset := st.alloc(1)
	sym := &Symbol{
		Name:       name,
		Kind:       KindArray,
		CellBase:   base,
		IndexLo:    lo,
		IndexHi:    hi,
		OffsetCell: offset,
	}
	st.top().symbols[name] = sym
	return sym, nil
}

// EnterFor pushes a child scope containing only the loop iterator, and
// allocates the iterator cell and its frozen bound cell. Fails if the
// iterator name collides with anything visible.
func (st *SymbolTable) EnterFor(name string, dir Direction) (iterCell, boundCell uint64, err *errors.CompileError) {
	if _, ok := st.lookupAnyScope(name); ok {
		return 0, 0, &errors.CompileError{
			Category: errors.Redeclaration,
			Message:  "FOR iterator shadows an existing name",
			Name:     name,
		}
	}
	iterCell = st.alloc(1)
	boundCell = st.alloc(1)
	sym := &Symbol{
		Name:      name,
		Kind:      KindForIterator,
		Cell:      iterCell,
		BoundCell: boundCell,
		Direction: dir,
		Immutable: true,
	}
	sc := newScope()
	sc.symbols[name] = sym
	st.scopes = append(st.scopes, sc)
	return iterCell, boundCell, nil
}

// LeaveFor pops the innermost FOR scope.
func (st *SymbolTable) LeaveFor() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// Resolve looks a name up lexically, innermost scope first.
func (st *SymbolTable) Resolve(name string) (*Symbol, bool) {
	return st.lookupAnyScope(name)
}

// AddrOfScalar returns a scalar symbol's cell.
func (st *SymbolTable) AddrOfScalar(name string) (uint64, bool) {
	sym, ok := st.lookupAnyScope(name)
	if !ok || sym.Kind != KindScalar {
		return 0, false
	}
	return sym.Cell, true
}

// Arrays returns every array symbol declared in the outermost (DECLARE)
// scope, in no particular order. The code generator uses this to emit each
// array's offset-cell prelude (spec §3: "the per-array offset constant
// b − lo is precomputed and stored in a dedicated cell").
func (st *SymbolTable) Arrays() []*Symbol {
	var arrs []*Symbol
	for _, sym := range st.scopes[0].symbols {
		if sym.Kind == KindArray {
			arrs = append(arrs, sym)
		}
	}
	return arrs
}

// AddrBaseOfArray returns an array symbol's base cell.
func (st *SymbolTable) AddrBaseOfArray(name string) (uint64, bool) {
	sym, ok := st.lookupAnyScope(name)
	if !ok || sym.Kind != KindArray {
		return 0, false
	}
	return sym.CellBase, true
}
