package lower

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// lowerTopLevel lowers every top-level instruction into __mimium_main's
// entry block (global scope), recursing into each Fun's own body.
func (e *Emitter) lowerTopLevel(top *mir.Block) error {
	for _, inst := range top.Instructions {
		if fn, ok := inst.(*mir.Fun); ok {
			if err := e.lowerFun(fn); err != nil {
				return err
			}
			continue
		}
		if err := e.lowerInstruction(inst, true); err != nil {
			return err
		}
	}
	return nil
}

// lowerBlock lowers every instruction of b in the current function scope
// (isGlobal is always false here: only __mimium_main's own top-level
// instructions are global-scope).
func (e *Emitter) lowerBlock(b *mir.Block) error {
	for _, inst := range b.Instructions {
		if err := e.lowerInstruction(inst, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) lowerInstruction(inst mir.Instruction, isGlobal bool) error {
	switch v := inst.(type) {
	case *mir.Number:
		e.bind(v.LvName, newFloatConst(v.Value), mir.Float{})
		return nil
	case *mir.Symbol:
		val, ok := e.names[v.Ref]
		if !ok {
			return e.nameResolutionError(v.Ref)
		}
		e.bind(v.LvName, val, e.mirTypes[v.Ref])
		return nil
	case *mir.Ref:
		return e.lowerRef(v, isGlobal)
	case *mir.Alloca:
		return e.lowerAlloca(v, isGlobal)
	case *mir.Time:
		return e.lowerTime(v, isGlobal)
	case *mir.Op:
		return e.lowerOp(v)
	case *mir.MakeClosure:
		return e.lowerMakeClosure(v)
	case *mir.Fcall:
		return e.lowerFcall(v)
	case *mir.Assign:
		return e.lowerAssign(v)
	case *mir.Array, *mir.ArrayAccess:
		return diagnostics.Fatal(diagnostics.ErrTypeLowering,
			fmt.Sprintf("%s has no emission rule (spec.md §9 open question: array emission is rejected)", inst.ResultName()))
	case *mir.If:
		return e.lowerIf(v)
	case *mir.Return:
		return e.lowerReturn(v)
	case *mir.Fun:
		return fmt.Errorf("lower: nested Fun %q reached emission; closure conversion should have hoisted it to top level", v.LvName)
	default:
		return fmt.Errorf("lower: unhandled instruction kind %T", inst)
	}
}

func (e *Emitter) bind(name string, val value.Value, t mir.Type) {
	e.names[name] = val
	if t != nil {
		e.mirTypes[name] = t
	}
}

func (e *Emitter) lookup(name string) (value.Value, error) {
	val, ok := e.names[name]
	if !ok {
		return nil, e.nameResolutionError(name)
	}
	return val, nil
}

func (e *Emitter) nameResolutionError(name string) error {
	return diagnostics.Fatal(diagnostics.ErrNameResolution,
		fmt.Sprintf("operand %q is absent from the emitter's name map", name))
}

func (e *Emitter) lowerAlloca(v *mir.Alloca, isGlobal bool) error {
	lt, err := e.lowerType(v.Typ)
	if err != nil {
		return err
	}
	e.createAllocation(isGlobal, lt, v.LvName)
	e.mirTypes["ptr_"+v.LvName] = v.Typ
	return nil
}

// lowerTime implements spec.md §4.3.4 "Time": allocate the Time(T)
// record if not already bound under ptr_<lv>, convert the time operand to
// double, and store time at field 0, value at field 1.
func (e *Emitter) lowerTime(v *mir.Time, isGlobal bool) error {
	timeVal, err := e.lookup(v.TimeName)
	if err != nil {
		return err
	}
	valueVal, err := e.lookup(v.ValueName)
	if err != nil {
		return err
	}
	innerType := e.mirTypes[v.ValueName]
	if innerType == nil {
		innerType = mir.Float{}
	}
	recordType, err := e.getOrCreateTimeStruct(mir.Time{Inner: innerType})
	if err != nil {
		return err
	}

	ptr, ok := e.names["ptr_"+v.LvName]
	if !ok {
		ptr = e.createAllocation(isGlobal, recordType, v.LvName)
	}
	zero := newIntConst(types.I32, 0)
	timeField := e.cur.NewGetElementPtr(recordType, ptr, zero, newIntConst(types.I32, 0))
	e.cur.NewStore(timeVal, timeField)
	valueField := e.cur.NewGetElementPtr(recordType, ptr, zero, newIntConst(types.I32, 1))
	e.cur.NewStore(valueVal, valueField)

	e.bind(v.LvName, ptr, mir.Time{Inner: innerType})
	return nil
}

// lowerRef resolves spec.md §9's open question by normalizing the naming
// explicitly: the pointer-to-pointer slot is bound under
// ptr_ptr_<lv_name>, and the pointer it was loaded back out of (the
// referenced pointer itself) under ptr_<lv_name> and as lv_name's bare
// value.
func (e *Emitter) lowerRef(v *mir.Ref, isGlobal bool) error {
	targetPtr, err := e.lookup("ptr_" + v.Target)
	if err != nil {
		return err
	}
	slot := e.createAllocation(isGlobal, targetPtr.Type(), "ptr_"+v.LvName)
	e.cur.NewStore(targetPtr, slot)
	loaded := e.cur.NewLoad(targetPtr.Type(), slot)

	e.names["ptr_"+v.LvName] = loaded
	e.bind(v.LvName, loaded, e.mirTypes[v.Target])
	return nil
}

// lowerOp implements spec.md §4.3.4 "Op": FAdd/FSub/FMul/FDiv, or
// Unreachable (a non-fatal, diagnosable-at-dump-time warning) for any
// other opcode.
func (e *Emitter) lowerOp(v *mir.Op) error {
	lhs, err := e.lookup(v.Lhs)
	if err != nil {
		return err
	}
	rhs, err := e.lookup(v.Rhs)
	if err != nil {
		return err
	}

	var result value.Value
	switch v.Opcode {
	case mir.ADD:
		result = e.cur.NewFAdd(lhs, rhs)
	case mir.SUB:
		result = e.cur.NewFSub(lhs, rhs)
	case mir.MUL:
		result = e.cur.NewFMul(lhs, rhs)
	case mir.DIV:
		result = e.cur.NewFDiv(lhs, rhs)
	default:
		e.cur.NewUnreachable()
		e.Warnings = append(e.Warnings, diagnostics.Warn(diagnostics.ErrUnreachableOpcode,
			fmt.Sprintf("%s: unknown opcode, lowered to unreachable", v.LvName)))
		return nil
	}
	e.bind(v.LvName, result, mir.Float{})
	return nil
}

// lowerMakeClosure implements spec.md §4.3.4 "MakeClosure": the
// environment record is always heap-allocated (spec.md Non-goals: closure
// environments are heap-allocated and owned by the enclosing scope,
// regardless of the scope the MakeClosure executes in), one pointer field
// per capture in Captures order.
func (e *Emitter) lowerMakeClosure(v *mir.MakeClosure) error {
	st, ok := v.EnvType.(mir.Struct)
	if !ok {
		return diagnostics.Fatal(diagnostics.ErrTypeLowering, "MakeClosure environment type is not a Struct")
	}
	recordType, err := e.lowerEnvRecordType(st)
	if err != nil {
		return err
	}
	envPtr := e.createAllocation(true, recordType, v.LvName)
	zero := newIntConst(types.I32, 0)
	for i, capture := range v.Captures {
		fieldPtr, err := e.lookup("ptr_" + capture)
		if err != nil {
			return err
		}
		gep := e.cur.NewGetElementPtr(recordType, envPtr, zero, newIntConst(types.I32, int64(i)))
		e.cur.NewStore(fieldPtr, gep)
	}
	e.bind(v.LvName, envPtr, v.EnvType)
	return nil
}

// lowerAssign implements spec.md §4.3.4 "Assign": only the Float lvalue
// case has emission semantics (spec.md §9 open question); anything else
// is a documented no-op.
func (e *Emitter) lowerAssign(v *mir.Assign) error {
	targetType := e.mirTypes[v.Target]
	if _, isFloat := targetType.(mir.Float); !isFloat {
		return nil
	}
	ptr, err := e.lookup("ptr_" + v.Target)
	if err != nil {
		return nil // no backing storage recorded; nothing to rebind
	}
	newVal, err := e.lookup(v.Value)
	if err != nil {
		return err
	}
	e.cur.NewStore(newVal, ptr)

	if old, ok := e.names[v.Target]; ok {
		e.names[v.Target+"_o"] = old
	}
	reloaded := e.cur.NewLoad(types.Double, ptr)
	e.bind(v.Target, reloaded, mir.Float{})
	e.bind(v.LvName, reloaded, mir.Float{})
	return nil
}

// lowerIf lowers a two-armed conditional to three basic blocks and a phi
// combining the arms' final bindings.
func (e *Emitter) lowerIf(v *mir.If) error {
	cond, err := e.lookup(v.Cond)
	if err != nil {
		return err
	}
	zero := newFloatConst(0)
	test := e.cur.NewFCmp(enum.FPredONE, cond, zero)

	fn := e.cur.Parent
	thenBB := fn.NewBlock(v.LvName + "_then")
	elseBB := fn.NewBlock(v.LvName + "_else")
	mergeBB := fn.NewBlock(v.LvName + "_merge")
	e.cur.NewCondBr(test, thenBB, elseBB)

	e.cur = thenBB
	if err := e.lowerBlock(v.Then); err != nil {
		return err
	}
	thenVal := e.lastBoundValue(v.Then)
	thenEnd := e.cur
	if thenEnd.Term == nil {
		thenEnd.NewBr(mergeBB)
	}

	e.cur = elseBB
	if err := e.lowerBlock(v.Else); err != nil {
		return err
	}
	elseVal := e.lastBoundValue(v.Else)
	elseEnd := e.cur
	if elseEnd.Term == nil {
		elseEnd.NewBr(mergeBB)
	}

	e.cur = mergeBB
	if thenVal != nil && elseVal != nil {
		phi := mergeBB.NewPhi(ir.NewIncoming(thenVal, thenEnd), ir.NewIncoming(elseVal, elseEnd))
		e.bind(v.LvName, phi, mir.Float{})
	}
	return nil
}

func (e *Emitter) lastBoundValue(b *mir.Block) value.Value {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	return e.names[last.ResultName()]
}

func (e *Emitter) lowerReturn(v *mir.Return) error {
	if v.Value == "" {
		e.cur.NewRet(nil)
		return nil
	}
	val, err := e.lookup(v.Value)
	if err != nil {
		return err
	}
	e.cur.NewRet(val)
	return nil
}
