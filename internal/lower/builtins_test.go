package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mimium-lang/mimium-cc/internal/mir"
)

// TestEmitLowersBuiltinCallToIntrinsic covers spec.md §4.3.5: a call to a
// registered builtin name resolves before the module function table and
// lowers to the matching LLVM intrinsic call.
func TestEmitLowersBuiltinCallToIntrinsic(t *testing.T) {
	top := mir.NewBlock("top")
	top.Append(&mir.Number{LvName: "n0", Value: 1})
	top.Append(&mir.Fcall{LvName: "n1", Callee: "sin", Args: []string{"n0"}, Kind: mir.External})
	top.Append(&mir.Return{LvName: "n2", Value: "n1"})

	e := New()
	module, _, err := e.Emit(top, map[string]bool{})
	require.NoError(t, err)

	rendered := module.String()
	require.Contains(t, rendered, "call double @llvm.sin.f64")
	require.Contains(t, rendered, "declare double @llvm.sin.f64(double")
}

// TestEmitReusesIntrinsicDeclarationAcrossCallSites ensures two calls to
// the same builtin in one compile share a single declaration.
func TestEmitReusesIntrinsicDeclarationAcrossCallSites(t *testing.T) {
	top := mir.NewBlock("top")
	top.Append(&mir.Number{LvName: "n0", Value: 1})
	top.Append(&mir.Fcall{LvName: "n1", Callee: "cos", Args: []string{"n0"}, Kind: mir.External})
	top.Append(&mir.Fcall{LvName: "n2", Callee: "cos", Args: []string{"n1"}, Kind: mir.External})
	top.Append(&mir.Return{LvName: "n3", Value: "n2"})

	e := New()
	module, _, err := e.Emit(top, map[string]bool{})
	require.NoError(t, err)

	rendered := module.String()
	require.Equal(t, 1, strings.Count(rendered, "declare double @llvm.cos.f64"))
}
