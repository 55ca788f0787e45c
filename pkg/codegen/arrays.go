package codegen

import (
	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/ir"
)

// directAddr computes the compile-time cell address of arr[k] for a literal
// index (spec §4.4, §9 "constant-as-address short-circuit": literal array
// indices are resolved at compile time, only variable indices pay the
// indirect-load cost).
func directAddr(arr ir.ArrayRef, k int64) uint64 {
	return arr.Base + uint64(k-arr.Lo)
}

// genLoadIndexed lowers `dst <- arr[idx]`. A literal index becomes a direct
// LOAD; a variable index computes `offset_cell + idx -> address cell` then
// LOADIs through it (cellTempA).
func (g *Generator) genLoadIndexed(op ir.Op) {
	if op.Index.Kind == ir.OperandConst {
		g.b.Emit(asm.LOAD, int64(directAddr(op.Arr, op.Index.Const)))
		g.b.Emit(asm.STORE, int64(op.Dst.Cell))
		return
	}
	g.b.Emit(asm.LOAD, int64(op.Index.Cell))
	g.b.Emit(asm.ADD, int64(op.Arr.OffsetCell))
	g.b.Emit(asm.STORE, int64(cellTempA))
	g.b.Emit(asm.LOADI, int64(cellTempA))
	g.b.Emit(asm.STORE, int64(op.Dst.Cell))
}

// genStoreIndexed lowers `arr[idx] <- src`. The address (for a variable
// index) is computed into cellTempB before src is materialized into the
// accumulator, since src's own materialization may use cellTempA.
func (g *Generator) genStoreIndexed(op ir.Op) {
	if op.Index.Kind == ir.OperandConst {
		g.genLoadOperand(op.Src)
		g.b.Emit(asm.STORE, int64(directAddr(op.Arr, op.Index.Const)))
		return
	}
	g.b.Emit(asm.LOAD, int64(op.Index.Cell))
	g.b.Emit(asm.ADD, int64(op.Arr.OffsetCell))
	g.b.Emit(asm.STORE, int64(cellTempB))
	g.genLoadOperand(op.Src)
	g.b.Emit(asm.STOREI, int64(cellTempB))
}
