package mirparser

import (
	"fmt"
	"strconv"

	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// ToBlock converts a parsed Program into a *mir.Block, the same shape
// internal/mir.Printer.Dump renders text from. Round-tripping
// mir.Dump(ToBlock(ParseString(mir.Dump(b)))) is expected to reproduce
// the original dump byte-for-byte for any block built from the
// instruction kinds this parser supports (spec.md §8 round-trip
// property, extended to the textual form).
func ToBlock(p *Program) (*mir.Block, error) {
	b := mir.NewBlock("top")
	for _, line := range p.Instructions {
		inst, err := toInstruction(line)
		if err != nil {
			return nil, err
		}
		b.Append(inst)
	}
	return b, nil
}

func toInstruction(line *InstructionLine) (mir.Instruction, error) {
	lv := line.LvName
	rhs := line.RHS
	switch {
	case rhs.Number != nil:
		v, err := strconv.ParseFloat(*rhs.Number, 64)
		if err != nil {
			return nil, fmt.Errorf("mirparser: %s: invalid float literal %q: %w", lv, *rhs.Number, err)
		}
		return &mir.Number{LvName: lv, Value: v}, nil
	case rhs.Symbol != nil:
		return &mir.Symbol{LvName: lv, Ref: *rhs.Symbol}, nil
	case rhs.Ref != nil:
		return &mir.Ref{LvName: lv, Target: *rhs.Ref}, nil
	case rhs.Alloca != nil:
		t, err := toType(rhs.Alloca)
		if err != nil {
			return nil, err
		}
		return &mir.Alloca{LvName: lv, Typ: t}, nil
	case rhs.Time != nil:
		return &mir.Time{LvName: lv, TimeName: rhs.Time.TimeName, ValueName: rhs.Time.ValueName}, nil
	case rhs.Op != nil:
		op, err := toOpCode(rhs.Op.Op)
		if err != nil {
			return nil, err
		}
		return &mir.Op{LvName: lv, Opcode: op, Lhs: rhs.Op.Lhs, Rhs: rhs.Op.Rhs}, nil
	case rhs.Fun != nil:
		body, err := ToBlock(rhs.Fun.Body)
		if err != nil {
			return nil, err
		}
		var fv []string
		if rhs.Fun.FreeVar != nil {
			fv = rhs.Fun.FreeVar.Names
		}
		return &mir.Fun{LvName: lv, Args: rhs.Fun.Args, Body: body, FreeVars: fv}, nil
	case rhs.MakeClosure != nil:
		t, err := toType(rhs.MakeClosure.EnvType)
		if err != nil {
			return nil, err
		}
		return &mir.MakeClosure{
			LvName:   lv,
			FunName:  rhs.MakeClosure.FunName,
			Captures: rhs.MakeClosure.Captures,
			EnvType:  t,
		}, nil
	case rhs.FcallTimed != nil:
		return toFcall(lv, rhs.FcallTimed, true)
	case rhs.Fcall != nil:
		return toFcall(lv, rhs.Fcall, false)
	case rhs.Array != nil:
		return &mir.Array{LvName: lv, Elems: rhs.Array.Elems}, nil
	case rhs.ArrayAccess != nil:
		return &mir.ArrayAccess{LvName: lv, ArrayName: rhs.ArrayAccess.ArrayName, Index: rhs.ArrayAccess.Index}, nil
	case rhs.If != nil:
		then, err := ToBlock(rhs.If.Then)
		if err != nil {
			return nil, err
		}
		els, err := ToBlock(rhs.If.Else)
		if err != nil {
			return nil, err
		}
		return &mir.If{LvName: lv, Cond: rhs.If.Cond, Then: then, Else: els}, nil
	case rhs.Return != nil:
		return &mir.Return{LvName: lv, Value: *rhs.Return}, nil
	case rhs.Assign != nil:
		return &mir.Assign{LvName: lv, Target: rhs.Assign.Target, Value: rhs.Assign.Value}, nil
	default:
		return nil, fmt.Errorf("mirparser: %s: empty right-hand side", lv)
	}
}

func toFcall(lv string, f *FcallRHS, timed bool) (mir.Instruction, error) {
	kind, err := toCallKind(f.Kind)
	if err != nil {
		return nil, err
	}
	return &mir.Fcall{LvName: lv, Callee: f.Callee, Args: f.Args, Kind: kind, IsTimed: timed}, nil
}

func toCallKind(s string) (mir.CallKind, error) {
	switch s {
	case "closure":
		return mir.Closure, nil
	case "direct":
		return mir.Direct, nil
	case "external":
		return mir.External, nil
	default:
		return 0, fmt.Errorf("mirparser: unknown call kind %q", s)
	}
}

func toOpCode(s string) (mir.OpCode, error) {
	switch s {
	case "+":
		return mir.ADD, nil
	case "-":
		return mir.SUB, nil
	case "*":
		return mir.MUL, nil
	case "/":
		return mir.DIV, nil
	default:
		return 0, fmt.Errorf("mirparser: unknown operator %q", s)
	}
}

func toType(t *TypeNode) (mir.Type, error) {
	switch {
	case t.Named != nil:
		switch *t.Named {
		case "Float":
			return mir.Float{}, nil
		case "Void":
			return mir.Void{}, nil
		default:
			return nil, fmt.Errorf("mirparser: unknown named type %q", *t.Named)
		}
	case t.Function != nil:
		args := make([]mir.Type, len(t.Function.Args))
		for i, a := range t.Function.Args {
			at, err := toType(a)
			if err != nil {
				return nil, err
			}
			args[i] = at
		}
		ret, err := toType(t.Function.Ret)
		if err != nil {
			return nil, err
		}
		return mir.Function{Args: args, Ret: ret}, nil
	case t.Struct != nil:
		fields := make([]mir.Type, len(t.Struct.Fields))
		for i, f := range t.Struct.Fields {
			ft, err := toType(f)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		return mir.Struct{Fields: fields}, nil
	case t.Time != nil:
		inner, err := toType(t.Time.Inner)
		if err != nil {
			return nil, err
		}
		return mir.Time{Inner: inner}, nil
	default:
		return nil, fmt.Errorf("mirparser: empty type node")
	}
}
