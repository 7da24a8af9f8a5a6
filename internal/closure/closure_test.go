package closure

import (
	"strings"
	"testing"

	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

// buildIdentityScenario builds scenario 1 from spec.md §8: a zero-capture
// nested function.
func buildIdentityScenario() (*mir.Block, *typeenv.TypeEnv) {
	tenv := typeenv.New()
	tenv.Define("x", mir.Float{})

	innerBody := mir.NewBlock("f")
	innerBody.Append(&mir.Return{LvName: "r", Value: "x"})

	inner := &mir.Fun{
		LvName: "f",
		Args:   []string{"x"},
		Body:   innerBody,
		Typ:    mir.Function{Args: []mir.Type{mir.Float{}}, Ret: mir.Float{}},
	}

	outerBody := mir.NewBlock("main")
	outerBody.Append(inner)
	outerBody.Append(&mir.Number{LvName: "n3", Value: 3})
	outerBody.Append(&mir.Fcall{LvName: "c", Callee: "f", Args: []string{"n3"}, Kind: mir.Closure})
	outerBody.Append(&mir.Return{LvName: "r2", Value: "c"})

	outer := &mir.Fun{
		LvName: "main",
		Args:   nil,
		Body:   outerBody,
		Typ:    mir.Function{Ret: mir.Void{}},
	}

	top := mir.NewBlock("top")
	top.Append(outer)
	return top, tenv
}

func TestIdentityFunctionScenario(t *testing.T) {
	top, tenv := buildIdentityScenario()
	root := scope.NewRoot()

	result, err := Convert(top, root, tenv)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !result.KnownFunctions["f"] {
		t.Fatalf("expected f to have zero captures and be known")
	}

	// f must have been hoisted to top level (no longer nested in main's body).
	names := topLevelFunNames(top)
	if !containsName(names, "f") || !containsName(names, "main") {
		t.Fatalf("expected both f and main at top level, got %v", names)
	}

	// The call site must have been promoted to Direct and no MakeClosure emitted.
	call := findFcall(top, "c")
	if call == nil || call.Kind != mir.Direct {
		t.Fatalf("expected call to f to be Direct, got %+v", call)
	}
	if findMakeClosure(top, "f_cls") != nil {
		t.Fatalf("expected no MakeClosure for a zero-capture function")
	}
}

// buildSingleCaptureScenario builds scenario 2 from spec.md §8.
func buildSingleCaptureScenario() (*mir.Block, *typeenv.TypeEnv) {
	tenv := typeenv.New()
	tenv.Define("y", mir.Float{})
	tenv.Define("x", mir.Float{})

	gBody := mir.NewBlock("g")
	gBody.Append(&mir.Op{LvName: "s", Opcode: mir.ADD, Lhs: "x", Rhs: "y"})
	gBody.Append(&mir.Return{LvName: "r", Value: "s"})

	g := &mir.Fun{
		LvName: "g",
		Args:   []string{"x"},
		Body:   gBody,
		Typ:    mir.Function{Args: []mir.Type{mir.Float{}}, Ret: mir.Float{}},
	}

	mainBody := mir.NewBlock("main")
	mainBody.Append(&mir.Number{LvName: "y", Value: 2})
	mainBody.Append(g)
	mainBody.Append(&mir.Number{LvName: "n4", Value: 4})
	mainBody.Append(&mir.Fcall{LvName: "v", Callee: "g", Args: []string{"n4"}, Kind: mir.Closure})

	main := &mir.Fun{LvName: "main", Body: mainBody, Typ: mir.Function{Ret: mir.Void{}}}

	top := mir.NewBlock("top")
	top.Append(main)
	return top, tenv
}

func TestSingleCaptureScenario(t *testing.T) {
	top, tenv := buildSingleCaptureScenario()
	root := scope.NewRoot()

	result, err := Convert(top, root, tenv)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.KnownFunctions["g"] {
		t.Fatalf("expected g to require an environment, not be known")
	}

	g := findFun(top, "g")
	if g == nil {
		t.Fatalf("expected g at top level")
	}
	if len(g.FreeVars) != 1 || g.FreeVars[0] != "y" {
		t.Fatalf("expected g.FreeVars == [y], got %v", g.FreeVars)
	}

	mc := findMakeClosure(top, "g_cls")
	if mc == nil {
		t.Fatalf("expected a MakeClosure named g_cls")
	}
	if mc.FunName != "g" || len(mc.Captures) != 1 || mc.Captures[0] != "y" {
		t.Fatalf("unexpected MakeClosure: %+v", mc)
	}
	envType, ok := mc.EnvType.(mir.Struct)
	if !ok || len(envType.Fields) != 1 || !envType.Fields[0].Equal(mir.Float{}) {
		t.Fatalf("expected Struct(Float) environment type, got %v", mc.EnvType)
	}

	// Operand x+y inside g must have y rewritten to fv_y, x left alone.
	op := findOp(g.Body, "s")
	if op == nil || op.Lhs != "x" || op.Rhs != "fv_y" {
		t.Fatalf("expected s = x + fv_y, got %+v", op)
	}

	call := findFcall(top, "v")
	if call == nil || call.Kind != mir.Closure {
		t.Fatalf("expected call to g to remain Closure, got %+v", call)
	}
}

func TestNestedCaptureScenario(t *testing.T) {
	tenv := typeenv.New()
	tenv.Define("a", mir.Float{})
	tenv.Define("b", mir.Float{})

	innerBody := mir.NewBlock("inner")
	innerBody.Append(&mir.Op{LvName: "s1", Opcode: mir.ADD, Lhs: "a", Rhs: "b"})
	innerBody.Append(&mir.Return{LvName: "ri", Value: "s1"})
	inner := &mir.Fun{LvName: "inner", Body: innerBody, Typ: mir.Function{Ret: mir.Float{}}}

	outerBody := mir.NewBlock("outerfn")
	outerBody.Append(inner)
	outerBody.Append(&mir.Op{LvName: "s2", Opcode: mir.ADD, Lhs: "a", Rhs: "b"})
	outerBody.Append(&mir.Return{LvName: "ro", Value: "s2"})
	outer := &mir.Fun{LvName: "outerfn", Args: []string{"b"}, Body: outerBody, Typ: mir.Function{Args: []mir.Type{mir.Float{}}, Ret: mir.Float{}}}

	mainBody := mir.NewBlock("main")
	mainBody.Append(&mir.Number{LvName: "a", Value: 1})
	mainBody.Append(outer)
	main := &mir.Fun{LvName: "main", Body: mainBody, Typ: mir.Function{Ret: mir.Void{}}}

	top := mir.NewBlock("top")
	top.Append(main)

	root := scope.NewRoot()
	result, err := Convert(top, root, tenv)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if result.KnownFunctions["outerfn"] || result.KnownFunctions["inner"] {
		t.Fatalf("expected both outerfn and inner to require environments")
	}

	outerFun := findFun(top, "outerfn")
	innerFun := findFun(top, "inner")
	if outerFun == nil || innerFun == nil {
		t.Fatalf("expected both functions hoisted to top level")
	}
	if len(outerFun.FreeVars) != 1 || outerFun.FreeVars[0] != "a" {
		t.Fatalf("expected outerfn.FreeVars == [a], got %v", outerFun.FreeVars)
	}
	if len(innerFun.FreeVars) != 2 || innerFun.FreeVars[0] != "a" || innerFun.FreeVars[1] != "b" {
		t.Fatalf("expected inner.FreeVars == [a, b] in first-reference order, got %v", innerFun.FreeVars)
	}
}

func TestConversionIsIdempotent(t *testing.T) {
	top, tenv := buildSingleCaptureScenario()
	root := scope.NewRoot()

	if _, err := Convert(top, root, tenv); err != nil {
		t.Fatalf("first Convert failed: %v", err)
	}
	first := mir.Dump(top)

	root2 := scope.NewRoot()
	if _, err := Convert(top, root2, tenv); err != nil {
		t.Fatalf("second Convert failed: %v", err)
	}
	second := mir.Dump(top)

	if first != second {
		t.Fatalf("conversion is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestUnboundNameIsFatal(t *testing.T) {
	tenv := typeenv.New()
	body := mir.NewBlock("f")
	body.Append(&mir.Return{LvName: "r", Value: "ghost"})
	fn := &mir.Fun{LvName: "f", Body: body, Typ: mir.Function{Ret: mir.Float{}}}

	top := mir.NewBlock("top")
	top.Append(fn)

	_, err := Convert(top, scope.NewRoot(), tenv)
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected a fatal diagnostic naming the unbound variable, got %v", err)
	}
}

// --- test helpers -----------------------------------------------------

func topLevelFunNames(top *mir.Block) []string {
	var names []string
	for _, inst := range top.Instructions {
		if fn, ok := inst.(*mir.Fun); ok {
			names = append(names, fn.LvName)
		}
	}
	return names
}

func containsName(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func findFun(block *mir.Block, name string) *mir.Fun {
	for _, inst := range block.Instructions {
		if fn, ok := inst.(*mir.Fun); ok && fn.LvName == name {
			return fn
		}
	}
	return nil
}

func findMakeClosure(block *mir.Block, name string) *mir.MakeClosure {
	for _, inst := range block.Instructions {
		if mc, ok := inst.(*mir.MakeClosure); ok && mc.LvName == name {
			return mc
		}
		if fn, ok := inst.(*mir.Fun); ok {
			if found := findMakeClosure(fn.Body, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func findFcall(block *mir.Block, name string) *mir.Fcall {
	for _, inst := range block.Instructions {
		if call, ok := inst.(*mir.Fcall); ok && call.LvName == name {
			return call
		}
		if fn, ok := inst.(*mir.Fun); ok {
			if found := findFcall(fn.Body, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func findOp(block *mir.Block, name string) *mir.Op {
	for _, inst := range block.Instructions {
		if op, ok := inst.(*mir.Op); ok && op.LvName == name {
			return op
		}
	}
	return nil
}
