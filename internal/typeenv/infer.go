package typeenv

import "github.com/mimium-lang/mimium-cc/internal/mir"

// InferFromMIR walks top (pre-closure-conversion MIR, as produced by
// internal/mirparser or any earlier compiler phase) and records every
// name whose type is staticcally derivable from its defining
// instruction. This is how cmd/mimium-cc builds a TypeEnv for inputs
// that arrive as bare textual MIR with no separate type-checking pass:
// spec.md treats TypeEnv as an external collaborator populated upstream,
// but a standalone CLI driving this core in isolation has to play that
// upstream role itself (see SPEC_FULL.md §1's "textual MIR parser"
// exception).
func InferFromMIR(top *mir.Block) *TypeEnv {
	t := New()
	walkBlock(t, top)
	return t
}

func walkBlock(t *TypeEnv, b *mir.Block) {
	for _, inst := range b.Instructions {
		walkInstruction(t, inst)
	}
}

func walkInstruction(t *TypeEnv, inst mir.Instruction) {
	switch v := inst.(type) {
	case *mir.Number:
		t.Define(v.LvName, mir.Float{})
	case *mir.Symbol:
		if typ, ok := t.Find(v.Ref); ok {
			t.Define(v.LvName, typ)
		}
	case *mir.Ref:
		if typ, ok := t.Find(v.Target); ok {
			t.Define(v.LvName, typ)
		}
	case *mir.Alloca:
		t.Define(v.LvName, v.Typ)
	case *mir.Time:
		inner, ok := t.Find(v.ValueName)
		if !ok {
			inner = mir.Float{}
		}
		t.Define(v.LvName, mir.Time{Inner: inner})
	case *mir.Op:
		t.Define(v.LvName, mir.Float{})
	case *mir.Fun:
		t.Define(v.LvName, v.Typ)
		walkBlock(t, v.Body)
	case *mir.MakeClosure:
		t.Define(v.LvName, v.EnvType)
	case *mir.Fcall:
		t.Define(v.LvName, mir.Float{})
	case *mir.Array:
		t.Define(v.LvName, mir.Void{})
	case *mir.ArrayAccess:
		t.Define(v.LvName, mir.Float{})
	case *mir.If:
		t.Define(v.LvName, mir.Float{})
		walkBlock(t, v.Then)
		walkBlock(t, v.Else)
	case *mir.Assign:
		if typ, ok := t.Find(v.Target); ok {
			t.Define(v.LvName, typ)
		}
	case *mir.Return:
		// carries no new binding
	}
}
