package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mimium-lang/mimium-cc/internal/closure"
	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

// buildArithmeticScenario: n0 = 3; n1 = n0 * n0; return n1 (spec.md §8
// scenario 5).
func buildArithmeticScenario() *mir.Block {
	top := mir.NewBlock("top")
	top.Append(&mir.Number{LvName: "n0", Value: 3})
	top.Append(&mir.Op{LvName: "n1", Opcode: mir.MUL, Lhs: "n0", Rhs: "n0"})
	top.Append(&mir.Return{LvName: "n2", Value: "n1"})
	return top
}

func TestEmitArithmeticLowersToFMulAndRet(t *testing.T) {
	top := buildArithmeticScenario()
	tenv := typeenv.InferFromMIR(top)
	result, err := closure.Convert(top, scope.NewRoot(), tenv)
	require.NoError(t, err)

	e := New()
	module, taskTypes, err := e.Emit(result.Top, result.KnownFunctions)
	require.NoError(t, err)
	require.Empty(t, taskTypes)

	rendered := module.String()
	require.Contains(t, rendered, "fmul")
	require.Contains(t, rendered, EntryFuncName)
}

// buildTimedCallScenario builds a module-level function f(x) and a timed
// call to it: t0 = time delay x; r1 = app@timed(direct) f(t0) (spec.md §8
// scenario 4).
func buildTimedCallScenario() (*mir.Block, map[string]bool) {
	body := mir.NewBlock("f_body")
	body.Append(&mir.Return{LvName: "r0", Value: "x"})

	top := mir.NewBlock("top")
	top.Append(&mir.Number{LvName: "delay", Value: 1})
	top.Append(&mir.Number{LvName: "x", Value: 2})
	top.Append(&mir.Fun{
		LvName: "f",
		Args:   []string{"x"},
		Body:   body,
		Typ:    mir.Function{Args: []mir.Type{mir.Float{}}, Ret: mir.Float{}},
	})
	top.Append(&mir.Time{LvName: "t0", TimeName: "delay", ValueName: "x"})
	top.Append(&mir.Fcall{LvName: "r1", Callee: "f", Args: []string{"t0"}, Kind: mir.Direct, IsTimed: true})

	return top, map[string]bool{"f": true}
}

func TestEmitTimedCallLowersToAddTask(t *testing.T) {
	top, known := buildTimedCallScenario()
	e := New()
	module, taskTypes, err := e.Emit(top, known)
	require.NoError(t, err)
	require.Len(t, taskTypes, 1)
	require.True(t, taskTypes[0].Equal(mir.Float{}))

	rendered := module.String()
	require.Contains(t, rendered, "call void @addTask")
	require.True(t, strings.Contains(rendered, "declare ") && strings.Contains(rendered, "@addTask"))
}

// TestEmitterResetAllowsReuse covers spec.md §8 scenario 6: an Emitter
// compiling twice in a row produces two independent, equally valid
// modules, with no leaked state from the first compile.
func TestEmitterResetAllowsReuse(t *testing.T) {
	e := New()

	top1 := buildArithmeticScenario()
	tenv1 := typeenv.InferFromMIR(top1)
	result1, err := closure.Convert(top1, scope.NewRoot(), tenv1)
	require.NoError(t, err)
	module1, _, err := e.Emit(result1.Top, result1.KnownFunctions)
	require.NoError(t, err)
	require.Contains(t, module1.String(), "fmul")

	top2, known2 := buildTimedCallScenario()
	module2, taskTypes2, err := e.Emit(top2, known2)
	require.NoError(t, err)
	require.Len(t, taskTypes2, 1)
	require.Contains(t, module2.String(), "@addTask")
	require.NotContains(t, module2.String(), "fmul")
}

func TestEmitRejectsArrayInstruction(t *testing.T) {
	top := mir.NewBlock("top")
	top.Append(&mir.Array{LvName: "a0", Elems: nil})

	e := New()
	_, _, err := e.Emit(top, map[string]bool{})
	require.Error(t, err)
}
