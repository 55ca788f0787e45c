package codegen

import "github.com/jakubdabek/gembiler/pkg/compiler"

// Local aliases for the reserved scratch cells, so the lowering templates in
// this package read as fixed named slots instead of compiler.CellXxx noise.
const (
	cellZero   = compiler.CellZero
	cellOne    = compiler.CellOne
	cellNegOne = compiler.CellNegOne

	cellTempA = compiler.CellTempA
	cellTempB = compiler.CellTempB
	cellTempC = compiler.CellTempC
	cellTempD = compiler.CellTempD
	cellTempE = compiler.CellTempE
	cellTempF = compiler.CellTempF
	cellTempG = compiler.CellTempG
	cellTempH = compiler.CellTempH
)
