package codegen

import "github.com/jakubdabek/gembiler/pkg/ir"

// arrayInit names the cell range of one array that needs a zero-fill
// prelude because some dynamic read of it precedes any write.
type arrayInit struct {
	Base, Length uint64
}

// analyzeInitNeeds walks ops once, tracking first touch per scalar cell and
// per array, to decide which cells need an explicit zero-store prelude
// (spec §7: "every declared cell is initialized before first read; other
// cells' first dynamic use is a store by program construction and require
// no prelude"). Array tracking is coarse-grained on purpose: a whole array
// is flagged for zero-init the first time any element of it is read before
// any element of it has been written, rather than tracking liveness per
// element.
func analyzeInitNeeds(ops []ir.Op) (map[uint64]bool, []arrayInit) {
	writtenCell := make(map[uint64]bool)
	writtenArray := make(map[string]arrayInit)
	needCell := make(map[uint64]bool)
	var needArrayOrder []string
	needArraySeen := make(map[string]bool)
	arrayByName := make(map[string]arrayInit)

	readCell := func(c uint64) {
		if !writtenCell[c] {
			needCell[c] = true
			writtenCell[c] = true // the prelude will in fact initialize it
		}
	}
	writeCell := func(c uint64) {
		writtenCell[c] = true
	}
	readArray := func(arr ir.ArrayRef) {
		arrayByName[arr.Name] = arrayInit{Base: arr.Base, Length: uint64(arr.Hi-arr.Lo) + 1}
		if _, ok := writtenArray[arr.Name]; !ok {
			if !needArraySeen[arr.Name] {
				needArraySeen[arr.Name] = true
				needArrayOrder = append(needArrayOrder, arr.Name)
			}
			writtenArray[arr.Name] = arrayByName[arr.Name]
		}
	}
	writeArray := func(arr ir.ArrayRef) {
		writtenArray[arr.Name] = arrayInit{Base: arr.Base, Length: uint64(arr.Hi-arr.Lo) + 1}
	}
	readOperand := func(o ir.Operand) {
		if o.Kind == ir.OperandCell {
			readCell(o.Cell)
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case ir.OpLoadConst:
			writeCell(op.Dst.Cell)
		case ir.OpCopy:
			readOperand(op.Src)
			writeCell(op.Dst.Cell)
		case ir.OpLoadIndexed:
			readOperand(op.Index)
			readArray(op.Arr)
			writeCell(op.Dst.Cell)
		case ir.OpStoreIndexed:
			readOperand(op.Index)
			readOperand(op.Src)
			writeArray(op.Arr)
		case ir.OpBinOp:
			readOperand(op.A)
			readOperand(op.B)
			writeCell(op.Dst.Cell)
		case ir.OpRead:
			writeCell(op.Dst.Cell)
		case ir.OpWrite:
			readOperand(op.Src)
		case ir.OpJumpIf:
			readOperand(op.A)
			readOperand(op.B)
		}
	}

	var needArray []arrayInit
	for _, name := range needArrayOrder {
		needArray = append(needArray, arrayByName[name])
	}
	return needCell, needArray
}
