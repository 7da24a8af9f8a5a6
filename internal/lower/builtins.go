package lower

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Builtin lowers a call to a fixed builtin name (spec.md §4.3.5). The
// builtin set itself is external to this spec; the emitter's contract is
// only that lookup is exact-match by name, tried before the module
// function table.
type Builtin func(e *Emitter, args []value.Value) (value.Value, error)

// defaultBuiltins wires the unary math intrinsics the mimium audio
// runtime exposes as bare names in MIR (original_source/mir.cpp's
// LLVMBuiltin::builtin_fntable entries "sin"/"cos"/"sqrt"/"abs"; spec.md
// §4.3.5's builtin-before-module-function lookup order). Each resolves to
// the matching LLVM float intrinsic. A caller with additional runtime
// intrinsics registers them with RegisterBuiltin; this table only covers
// the handful grounded in the original implementation's builtin table.
func defaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"sin":  unaryFloatIntrinsic("llvm.sin.f64"),
		"cos":  unaryFloatIntrinsic("llvm.cos.f64"),
		"sqrt": unaryFloatIntrinsic("llvm.sqrt.f64"),
		"abs":  unaryFloatIntrinsic("llvm.fabs.f64"),
	}
}

// unaryFloatIntrinsic returns a Builtin that calls the single-argument,
// double-precision LLVM intrinsic named llvmName, declaring it into the
// emitter's module on first use and reusing the declaration across every
// later call site in the same compile.
func unaryFloatIntrinsic(llvmName string) Builtin {
	return func(e *Emitter, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("lower: builtin %q takes exactly one argument, got %d", llvmName, len(args))
		}
		fn, ok := e.intrinsics[llvmName]
		if !ok {
			fn = e.module.NewFunc(llvmName, types.Double, ir.NewParam("x", types.Double))
			e.intrinsics[llvmName] = fn
		}
		return e.cur.NewCall(fn, args[0]), nil
	}
}
