package lower

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// lowerType implements spec.md §4.3.2's type-lowering table.
func (e *Emitter) lowerType(t mir.Type) (types.Type, error) {
	switch v := t.(type) {
	case nil:
		return types.Void, nil
	case mir.Float:
		return types.Double, nil
	case mir.Void:
		return types.Void, nil
	case mir.Function:
		args := make([]types.Type, len(v.Args))
		for i, a := range v.Args {
			lt, err := e.lowerType(a)
			if err != nil {
				return nil, err
			}
			args[i] = lt
		}
		ret, err := e.lowerType(v.Ret)
		if err != nil {
			return nil, err
		}
		return types.NewFunc(ret, args...), nil
	case mir.Struct:
		record, err := e.lowerEnvRecordType(v)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(record), nil
	case mir.Time:
		return e.getOrCreateTimeStruct(v)
	default:
		return nil, diagnostics.Fatal(diagnostics.ErrTypeLowering,
			fmt.Sprintf("MIR type %T has no low-level lowering", t))
	}
}

// lowerEnvRecordType lowers a closure environment's field list to the
// unpointered struct-of-pointers-to-field layout: environments only ever
// appear in MIR behind a pointer (spec.md §4.3.2), and each field stores
// the address, not the value, of a captured variable.
func (e *Emitter) lowerEnvRecordType(s mir.Struct) (*types.StructType, error) {
	fields := make([]types.Type, len(s.Fields))
	for i, f := range s.Fields {
		lt, err := e.lowerType(f)
		if err != nil {
			return nil, err
		}
		fields[i] = types.NewPointer(lt)
	}
	return types.NewStruct(fields...), nil
}

// getOrCreateTimeStruct returns the module-unique named struct type for
// t, creating and registering it on first use (spec.md §8: "exactly one
// low-level named type exists with a name equal to the MIR toString() of
// Time(T)").
func (e *Emitter) getOrCreateTimeStruct(t mir.Time) (*types.StructType, error) {
	name := t.String()
	if st, ok := e.timeStructs[name]; ok {
		return st, nil
	}
	inner, err := e.lowerType(t.Inner)
	if err != nil {
		return nil, err
	}
	st := types.NewStruct(types.Double, inner)
	st.TypeName = name
	e.module.NewTypeDef(name, st)
	e.timeStructs[name] = st
	return st, nil
}

func newFloatConst(v float64) value.Value {
	return constant.NewFloat(types.Double, v)
}

func newIntConst(t *types.IntType, v int64) value.Value {
	return constant.NewInt(t, v)
}
