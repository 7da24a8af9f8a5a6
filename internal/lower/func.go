package lower

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// lowerFun lowers a hoisted, already-signature-declared top-level Fun:
// binds its parameters (including the trailing closure-environment
// parameter and its per-capture field loads), lowers the body into the
// function's own entry block, and, if the body never reaches a return,
// appends a void return for a void function or a 0.0 return plus an
// ErrVoidFallback warning otherwise (spec.md §4.3.4 "Fun").
func (e *Emitter) lowerFun(fn *mir.Fun) error {
	llFn, ok := e.functions[fn.LvName]
	if !ok {
		return fmt.Errorf("lower: function %q was not pre-declared", fn.LvName)
	}

	savedEntry, savedCur, savedNames, savedTypes := e.entryBB, e.cur, e.names, e.mirTypes
	entry := llFn.NewBlock("entry")
	e.entryBB = entry
	e.cur = entry
	e.names = make(map[string]value.Value)
	e.mirTypes = make(map[string]mir.Type)

	for i, argName := range fn.Args {
		param := llFn.Params[i]
		e.bind(argName, param, argType(fn.Typ, i))
	}

	hasEnv := len(fn.FreeVars) > 0
	if hasEnv {
		envParam := llFn.Params[len(llFn.Params)-1]
		envType, ok := fn.Typ.Args[len(fn.Typ.Args)-1].(mir.Struct)
		if !ok {
			return fmt.Errorf("lower: function %q has free variables but no trailing Struct env type", fn.LvName)
		}
		recordType, err := e.lowerEnvRecordType(envType)
		if err != nil {
			return err
		}
		zero := newIntConst(types.I32, 0)
		for i, fv := range fn.FreeVars {
			gep := e.cur.NewGetElementPtr(recordType, envParam, zero, newIntConst(types.I32, int64(i)))
			fieldPtr := e.cur.NewLoad(recordType.Fields[i], gep)
			loaded := e.cur.NewLoad(recordType.Fields[i].(*types.PointerType).ElemType, fieldPtr)

			e.names["ptr_fv_"+fv] = fieldPtr
			e.bind("fv_"+fv, loaded, envType.Fields[i])
		}
	}

	if err := e.lowerBlock(fn.Body); err != nil {
		return err
	}
	if e.cur.Term == nil {
		if _, isVoid := fn.Typ.Ret.(mir.Void); isVoid || fn.Typ.Ret == nil {
			e.cur.NewRet(nil)
		} else {
			e.cur.NewRet(newFloatConst(0))
			e.Warnings = append(e.Warnings, diagnostics.Warn(diagnostics.ErrVoidFallback,
				fmt.Sprintf("%s: control fell off the end without a Return; synthesized a 0.0 return", fn.LvName)))
		}
	}

	e.entryBB, e.cur, e.names, e.mirTypes = savedEntry, savedCur, savedNames, savedTypes
	return nil
}

func argType(fnType mir.Function, i int) mir.Type {
	if i < len(fnType.Args) {
		return fnType.Args[i]
	}
	return nil
}
