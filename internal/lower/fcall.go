package lower

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// lowerFcall implements spec.md §4.3.4 "Fcall": builtins resolve before
// module functions; a Closure-kind call appends the callee's own
// "<callee>_cls" environment binding as a trailing argument; a timed call
// is rewritten into an addTask submission instead of a direct llvm call.
func (e *Emitter) lowerFcall(v *mir.Fcall) error {
	if v.IsTimed {
		return e.lowerTimedFcall(v)
	}

	args := make([]value.Value, 0, len(v.Args)+1)
	for _, a := range v.Args {
		val, err := e.lookup(a)
		if err != nil {
			return err
		}
		args = append(args, val)
	}

	if b, ok := e.builtins[v.Callee]; ok {
		result, err := b(e, args)
		if err != nil {
			return err
		}
		e.bind(v.LvName, result, mir.Float{})
		return nil
	}

	llFn, ok := e.functions[v.Callee]
	if !ok {
		return diagnostics.Fatal(diagnostics.ErrCalleeResolution,
			fmt.Sprintf("%q is neither a registered builtin nor a module function", v.Callee))
	}

	if v.Kind == mir.Closure {
		envVal, err := e.lookup(v.Callee + "_cls")
		if err != nil {
			return err
		}
		args = append(args, envVal)
	}

	result := e.cur.NewCall(llFn, args...)
	if _, void := llFn.Sig.RetType.(*types.VoidType); !void {
		e.bind(v.LvName, result, mir.Float{})
	}
	return nil
}

// lowerTimedFcall implements spec.md §4.3.4's timed-Fcall rule: the
// first argument carries a Time(T) record (time, value); the emitter
// loads both fields, bitcasts the callee to an opaque i8* (the runtime
// scheduler dispatches by raw function pointer), allocates a fresh
// global result slot, and submits the whole package to addTask rather
// than calling the callee directly.
func (e *Emitter) lowerTimedFcall(v *mir.Fcall) error {
	if len(v.Args) == 0 {
		return fmt.Errorf("lower: timed call %q has no Time(T) argument", v.LvName)
	}
	timeArgName := v.Args[0]
	timeRecordType, ok := e.mirTypes[timeArgName].(mir.Time)
	if !ok {
		return fmt.Errorf("lower: timed call %q's first argument is not a Time(T)", v.LvName)
	}
	recordType, err := e.getOrCreateTimeStruct(timeRecordType)
	if err != nil {
		return err
	}
	recordPtr, err := e.lookup(timeArgName)
	if err != nil {
		return err
	}
	zero := newIntConst(types.I32, 0)
	timeFieldPtr := e.cur.NewGetElementPtr(recordType, recordPtr, zero, newIntConst(types.I32, 0))
	timeVal := e.cur.NewLoad(types.Double, timeFieldPtr)
	valueFieldPtr := e.cur.NewGetElementPtr(recordType, recordPtr, zero, newIntConst(types.I32, 1))
	argVal := e.cur.NewLoad(types.Double, valueFieldPtr)

	llFn, ok := e.functions[v.Callee]
	if !ok {
		return diagnostics.Fatal(diagnostics.ErrCalleeResolution,
			fmt.Sprintf("timed call target %q is not a module function", v.Callee))
	}
	fnPtr := e.cur.NewBitCast(llFn, types.NewPointer(types.I8))

	resultSlot := e.createAllocation(true, types.Double, v.LvName)

	e.cur.NewCall(e.addTaskFn, timeVal, fnPtr, argVal, resultSlot)

	e.TaskTypeList = append(e.TaskTypeList, timeRecordType.Inner)
	e.taskTypeID++

	e.bind(v.LvName, resultSlot, mir.Float{})
	return nil
}
