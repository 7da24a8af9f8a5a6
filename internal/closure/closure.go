// Package closure implements closure conversion over mir.Block: free
// variable discovery, operand rewriting, function lifting with
// environment-record construction, call-site classification, and
// top-level hoisting. Grounded on the reference implementation's
// MIRinstruction::closureConvert family and FunInst::moveFunToTop.
package closure

import (
	"fmt"
	"strings"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

// Result is the output of Convert: the mutated top-level block (same
// pointer that was passed in — conversion is in place, per spec.md §4.2)
// plus the set of function names requiring no environment.
type Result struct {
	Top            *mir.Block
	KnownFunctions map[string]bool
}

// Convert runs closure conversion over top in place, using root as the
// scope chain's root frame and tenv to resolve captured variables' types.
func Convert(top *mir.Block, root *scope.Env, tenv *typeenv.TypeEnv) (*Result, error) {
	c := &converter{known: make(map[string]bool)}

	// Every Fun ends up at top level after conversion, so no Fun name is
	// ever a free variable — including names referenced before their
	// defining Fun is reached in traversal order (forward references,
	// common once earlier conversions have already hoisted siblings).
	// Registering them all up front, before any operand rewriting, keeps
	// that true regardless of traversal order.
	markAllFunctionNamesGlobal(top, root)

	if err := c.convertBlock(top, root, tenv, nil); err != nil {
		return nil, err
	}
	hoistToTopLevel(top)
	rewriteCallKinds(top, c.known)

	return &Result{Top: top, KnownFunctions: c.known}, nil
}

type converter struct {
	known map[string]bool
}

func markAllFunctionNamesGlobal(block *mir.Block, root *scope.Env) {
	for _, inst := range block.Instructions {
		switch v := inst.(type) {
		case *mir.Fun:
			root.MarkGlobal(v.LvName)
			markAllFunctionNamesGlobal(v.Body, root)
		case *mir.If:
			markAllFunctionNamesGlobal(v.Then, root)
			markAllFunctionNamesGlobal(v.Else, root)
		}
	}
}

func (c *converter) convertBlock(block *mir.Block, env *scope.Env, tenv *typeenv.TypeEnv, fn *mir.Fun) error {
	for _, inst := range block.Instructions {
		if err := c.convertInstruction(inst, block, env, tenv, fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *converter) convertInstruction(inst mir.Instruction, owner *mir.Block, env *scope.Env, tenv *typeenv.TypeEnv, fn *mir.Fun) error {
	var err error
	switch v := inst.(type) {
	case *mir.Number:
		// no operands to rewrite
	case *mir.Symbol:
		v.Ref, err = c.rewriteOperand(v.Ref, env, fn)
	case *mir.Ref:
		v.Target, err = c.rewriteOperand(v.Target, env, fn)
	case *mir.Alloca:
		// no name operands
	case *mir.Time:
		if v.ValueName, err = c.rewriteOperand(v.ValueName, env, fn); err == nil {
			v.TimeName, err = c.rewriteOperand(v.TimeName, env, fn)
		}
	case *mir.Op:
		if v.Lhs, err = c.rewriteOperand(v.Lhs, env, fn); err == nil {
			v.Rhs, err = c.rewriteOperand(v.Rhs, env, fn)
		}
	case *mir.Array:
		for i := range v.Elems {
			if v.Elems[i], err = c.rewriteOperand(v.Elems[i], env, fn); err != nil {
				break
			}
		}
	case *mir.ArrayAccess:
		if v.ArrayName, err = c.rewriteOperand(v.ArrayName, env, fn); err == nil {
			v.Index, err = c.rewriteOperand(v.Index, env, fn)
		}
	case *mir.Fcall:
		if v.Callee, err = c.rewriteOperand(v.Callee, env, fn); err == nil {
			for i := range v.Args {
				if v.Args[i], err = c.rewriteOperand(v.Args[i], env, fn); err != nil {
					break
				}
			}
		}
	case *mir.Assign:
		if v.Target, err = c.rewriteOperand(v.Target, env, fn); err == nil {
			v.Value, err = c.rewriteOperand(v.Value, env, fn)
		}
	case *mir.Return:
		v.Value, err = c.rewriteOperand(v.Value, env, fn)
	case *mir.If:
		if v.Cond, err = c.rewriteOperand(v.Cond, env, fn); err != nil {
			break
		}
		thenEnv := env.CreateChild(v.LvName+"_then", false)
		if err = c.convertBlock(v.Then, thenEnv, tenv, fn); err != nil {
			break
		}
		elseEnv := env.CreateChild(v.LvName+"_else", false)
		err = c.convertBlock(v.Else, elseEnv, tenv, fn)
	case *mir.Fun:
		return c.convertFun(v, owner, env, tenv)
	case *mir.MakeClosure:
		// never appears pre-conversion; nothing to rewrite.
	default:
		return fmt.Errorf("closure: unhandled instruction kind %T", v)
	}
	if err != nil {
		return err
	}
	if !isCapturedName(inst.ResultName()) {
		env.SetVariableRaw(inst.ResultName(), "tmp")
	}
	return nil
}

// convertFun implements spec.md §4.2 "Function lifting": a child scope is
// created and bound with the formals, the body is converted recursively,
// and — if the function captured anything — an environment type and a
// MakeClosure are synthesized and inserted right after the Fun in owner.
func (c *converter) convertFun(fn *mir.Fun, owner *mir.Block, env *scope.Env, tenv *typeenv.TypeEnv) error {
	// A Fun's own name is never a free variable of any enclosing or
	// sibling function: after conversion every Fun lives at top level.
	env.MarkGlobal(fn.LvName)

	child := env.CreateChild(fn.LvName, true)
	for _, arg := range fn.Args {
		child.SetVariableRaw(arg, "arg")
	}

	if err := c.convertBlock(fn.Body, child, tenv, fn); err != nil {
		return err
	}

	// A Fun whose type already carries the trailing environment parameter
	// was converted by an earlier pass: its environment type and
	// MakeClosure exist already, so only its body is re-checked.
	if len(fn.FreeVars) > 0 && len(fn.Typ.Args) > len(fn.Args) {
		return nil
	}

	if len(fn.FreeVars) == 0 {
		c.known[fn.LvName] = true
		return nil
	}

	fieldTypes := make([]mir.Type, len(fn.FreeVars))
	for i, name := range fn.FreeVars {
		typ, ok := tenv.Find(name)
		if !ok {
			return diagnostics.Fatal(diagnostics.ErrTypeEnvMiss,
				fmt.Sprintf("captured variable %q has no type-environment entry", name))
		}
		fieldTypes[i] = typ
	}
	envType := mir.Struct{Fields: fieldTypes}
	fn.Typ = fn.Typ.WithTrailingArg(envType)

	mc := &mir.MakeClosure{
		LvName:   fn.LvName + "_cls",
		FunName:  fn.LvName,
		Captures: append([]string(nil), fn.FreeVars...),
		EnvType:  envType,
	}
	owner.InsertAfter(fn.LvName, mc)
	return nil
}

// rewriteOperand classifies name against env at the point of reference
// inside fn (nil if there is no enclosing function, i.e. the reference is
// truly at the top level). A free-variable reference is rewritten to
// fv_<name> and appended to fn's free-variable list, in first-occurrence
// order, without duplicates.
func (c *converter) rewriteOperand(name string, env *scope.Env, fn *mir.Fun) (string, error) {
	if fn == nil || strings.HasPrefix(name, "fv_") {
		return name, nil
	}
	bound, nonLocal := env.IsFreeVariable(name)
	if !bound {
		return name, diagnostics.Fatal(diagnostics.ErrNameNotBound,
			fmt.Sprintf("name %q is not bound in any enclosing scope", name))
	}
	if !nonLocal {
		return name, nil
	}
	if !contains(fn.FreeVars, name) {
		fn.FreeVars = append(fn.FreeVars, name)
	}
	return "fv_" + name, nil
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func isCapturedName(name string) bool {
	return strings.HasPrefix(name, "fv_")
}

// hoistToTopLevel moves every nested Fun out of its enclosing body and
// appends it to top in pre-order: each Fun immediately followed by its
// own (now similarly hoisted) nested Funs, matching the original
// top-to-bottom declaration order. The MakeClosure a captured Fun gained
// during conversion is left behind at its original site.
func hoistToTopLevel(top *mir.Block) {
	var result []mir.Instruction
	for _, inst := range top.Instructions {
		if fn, ok := inst.(*mir.Fun); ok {
			result = append(result, hoistFun(fn)...)
			continue
		}
		result = append(result, inst)
	}
	top.Instructions = result
}

func hoistFun(fn *mir.Fun) []mir.Instruction {
	out := []mir.Instruction{fn}
	for _, nested := range collectAndRemoveNestedFuns(fn.Body) {
		out = append(out, hoistFun(nested)...)
	}
	return out
}

// collectAndRemoveNestedFuns finds every Fun directly owned by block (or
// reachable through nested If arms without crossing another Fun's
// boundary), removes it from its owning block, and returns the list in
// the order found.
func collectAndRemoveNestedFuns(block *mir.Block) []*mir.Fun {
	var found []*mir.Fun
	var names []string
	for _, inst := range block.Instructions {
		switch v := inst.(type) {
		case *mir.Fun:
			found = append(found, v)
			names = append(names, v.LvName)
		case *mir.If:
			found = append(found, collectAndRemoveNestedFuns(v.Then)...)
			found = append(found, collectAndRemoveNestedFuns(v.Else)...)
		}
	}
	for _, name := range names {
		block.RemoveNamed(name)
	}
	return found
}

// rewriteCallKinds promotes every Fcall whose callee is in known to
// CallKind Direct; all other calls keep whatever kind upstream/conversion
// already assigned (Closure or External).
func rewriteCallKinds(top *mir.Block, known map[string]bool) {
	walkAllInstructions(top, func(inst mir.Instruction) {
		if call, ok := inst.(*mir.Fcall); ok && known[call.Callee] {
			call.Kind = mir.Direct
		}
	})
}

func walkAllInstructions(block *mir.Block, visit func(mir.Instruction)) {
	for _, inst := range block.Instructions {
		visit(inst)
		switch v := inst.(type) {
		case *mir.Fun:
			walkAllInstructions(v.Body, visit)
		case *mir.If:
			walkAllInstructions(v.Then, visit)
			walkAllInstructions(v.Else, visit)
		}
	}
}
