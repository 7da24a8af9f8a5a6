package lower

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// createAllocation implements spec.md §4.3.3. isGlobal callers get a
// malloc'd, bitcast pointer that outlives the entry function's
// activation (the JIT harness may retain addresses past entry-point
// return); everyone else gets a stack allocation placed in the current
// function's designated entry block, never the current insertion block,
// so repeated allocas inside loops or nested ifs don't pile up off the
// function's single allocation point.
func (e *Emitter) createAllocation(isGlobal bool, t types.Type, name string) value.Value {
	var ptr value.Value
	if isGlobal {
		size := newIntConst(types.I64, sizeofHeuristic(t))
		raw := e.cur.NewCall(e.mallocFn, size)
		ptr = e.cur.NewBitCast(raw, types.NewPointer(t))
	} else {
		ptr = e.entryBB.NewAlloca(t)
	}
	e.names["ptr_"+name] = ptr
	return ptr
}

// sizeofHeuristic estimates an allocation's byte size for the malloc call
// argument. The emitter has no target data layout (that belongs to the
// external JIT/linker per spec.md §1), so it uses the same coarse 8-bytes-
// per-scalar-field accounting the reference implementation's
// getTypeSize-free malloc calls rely on: every pointer and every double
// is one machine word.
func sizeofHeuristic(t types.Type) int64 {
	switch v := t.(type) {
	case *types.StructType:
		var total int64
		for range v.Fields {
			total += 8
		}
		if total == 0 {
			total = 8
		}
		return total
	default:
		return 8
	}
}
