package mirparser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mimium-lang/mimium-cc/internal/mir"
)

func TestRoundTripFlatBlock(t *testing.T) {
	b := mir.NewBlock("top")
	b.Append(&mir.Number{LvName: "n0", Value: 3})
	b.Append(&mir.Op{LvName: "n1", Opcode: mir.MUL, Lhs: "n0", Rhs: "n0"})
	b.Append(&mir.Return{LvName: "n2", Value: "n1"})

	dump := mir.Dump(b)
	program, err := ParseString("t.mir", dump)
	require.NoError(t, err)

	parsed, err := ToBlock(program)
	require.NoError(t, err)
	require.Equal(t, dump, mir.Dump(parsed))
}

func TestRoundTripNestedFun(t *testing.T) {
	inner := mir.NewBlock("f_body")
	inner.Append(&mir.Op{LvName: "r0", Opcode: mir.ADD, Lhs: "x", Rhs: "fv_y"})
	inner.Append(&mir.Return{LvName: "r1", Value: "r0"})

	top := mir.NewBlock("top")
	top.Append(&mir.Number{LvName: "y", Value: 2})
	top.Append(&mir.Fun{
		LvName:   "f",
		Args:     []string{"x"},
		Body:     inner,
		FreeVars: []string{"y"},
		Typ:      mir.Function{Args: []mir.Type{mir.Float{}}, Ret: mir.Float{}},
	})

	dump := mir.Dump(top)
	program, err := ParseString("t.mir", dump)
	require.NoError(t, err)
	parsed, err := ToBlock(program)
	require.NoError(t, err)
	require.Equal(t, dump, mir.Dump(parsed))
}

func TestRoundTripFcallAndMakeClosure(t *testing.T) {
	top := mir.NewBlock("top")
	top.Append(&mir.MakeClosure{
		LvName:   "f_cls",
		FunName:  "f",
		Captures: []string{"y"},
		EnvType:  mir.Struct{Fields: []mir.Type{mir.Float{}}},
	})
	top.Append(&mir.Fcall{LvName: "r0", Callee: "f", Args: []string{"x"}, Kind: mir.Direct})

	dump := mir.Dump(top)
	program, err := ParseString("t.mir", dump)
	require.NoError(t, err)
	parsed, err := ToBlock(program)
	require.NoError(t, err)
	require.Equal(t, dump, mir.Dump(parsed))
}

func TestRoundTripIf(t *testing.T) {
	then := mir.NewBlock("then")
	then.Append(&mir.Number{LvName: "t0", Value: 1})
	els := mir.NewBlock("else")
	els.Append(&mir.Number{LvName: "e0", Value: 0})

	top := mir.NewBlock("top")
	top.Append(&mir.If{LvName: "r0", Cond: "cond", Then: then, Else: els})

	dump := mir.Dump(top)
	program, err := ParseString("t.mir", dump)
	require.NoError(t, err)
	parsed, err := ToBlock(program)
	require.NoError(t, err)
	require.Equal(t, dump, mir.Dump(parsed))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseString("bad.mir", "n0 = not a valid instruction at all ( ( (")
	require.Error(t, err)
}
