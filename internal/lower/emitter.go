// Package lower implements the code emitter: a single traversal of
// post-closure-conversion MIR that issues github.com/llir/llvm IR into one
// module containing a synthetic __mimium_main entry function and one
// low-level function per user function. Grounded on the reference
// implementation's LLVMGenerator and on the teacher's internal/ir
// builder.go (counters + name tables driving a single-pass traversal).
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

// EntryFuncName is the synthesized entry point's symbol, bit-exact per
// spec.md §4.3.1 and §6.
const EntryFuncName = "__mimium_main"

// Emitter lowers converted MIR to an *ir.Module. An instance is reusable
// across compiles via Reset; per-compile state lives entirely in its
// fields (spec.md §9 "Global mutable state" — no package-level counters).
type Emitter struct {
	module *ir.Module

	mainFunc  *ir.Func
	entryBB   *ir.Block // the current function's allocation entry block
	cur       *ir.Block // current insertion block

	names       map[string]value.Value // bare lv_name, ptr_<name>, ptr_ptr_<name>
	mirTypes    map[string]mir.Type    // name -> its MIR type, for operand introspection
	timeStructs map[string]*types.StructType

	functions  map[string]*ir.Func // MIR function name -> declared/defined llvm function
	builtins   map[string]Builtin
	intrinsics map[string]*ir.Func // llvm intrinsic name -> declared function, for defaultBuiltins

	mallocFn  *ir.Func
	addTaskFn *ir.Func

	taskTypeID   int
	TaskTypeList []mir.Type

	// Warnings accumulates non-fatal diagnostics (spec.md §7.4: an unknown
	// opcode traps at runtime but does not abort compilation).
	Warnings []diagnostics.Diagnostic
}

// New returns a ready-to-use Emitter with the default builtin table.
func New() *Emitter {
	e := &Emitter{}
	e.Reset()
	return e
}

// Reset clears all per-compile state, dropping the current module so the
// instance can be reused for another compile (spec.md §5 "dropAllReferences"
// / §8 scenario 6). Because github.com/llir/llvm's IR is ordinary
// garbage-collected Go data — unlike the reference implementation's
// manually reference-counted LLVM C++ objects — there are no explicit
// use-lists to unlink; dropping the Emitter's own pointers is sufficient
// for the module to become collectible. See DESIGN.md for why the
// original's replace-with-undef-then-erase dance does not carry over.
func (e *Emitter) Reset() {
	e.module = nil
	e.mainFunc = nil
	e.entryBB = nil
	e.cur = nil
	e.names = make(map[string]value.Value)
	e.mirTypes = make(map[string]mir.Type)
	e.timeStructs = make(map[string]*types.StructType)
	e.functions = make(map[string]*ir.Func)
	e.builtins = defaultBuiltins()
	e.intrinsics = make(map[string]*ir.Func)
	e.mallocFn = nil
	e.addTaskFn = nil
	e.taskTypeID = 0
	e.TaskTypeList = nil
	e.Warnings = nil
}

// RegisterBuiltin installs a builtin handler under name, resolved before
// the module function table at every Fcall site (spec.md §4.3.5).
func (e *Emitter) RegisterBuiltin(name string, b Builtin) {
	e.builtins[name] = b
}

// Emit lowers top (already closure-converted) into a fresh module, given
// the known-function set Convert produced. It returns the module and the
// task-type list (spec.md §6) in emission order.
func (e *Emitter) Emit(top *mir.Block, known map[string]bool) (*ir.Module, []mir.Type, error) {
	e.Reset()
	e.module = ir.NewModule()

	e.declareRuntime()
	e.declareModuleFunctions(top)
	e.createMainFunc()

	if err := e.lowerTopLevel(top); err != nil {
		return nil, nil, err
	}

	if e.cur.Term == nil {
		e.cur.NewRet(constant64(0))
	}

	return e.module, e.TaskTypeList, nil
}

// declareRuntime declares the external runtime functions malloc and
// addTask verbatim (spec.md §4.3.1); the third runtime symbol,
// __mimium_main, is defined by createMainFunc.
func (e *Emitter) declareRuntime() {
	e.mallocFn = e.module.NewFunc("malloc", types.NewPointer(types.I8), ir.NewParam("size", types.I64))

	e.addTaskFn = e.module.NewFunc("addTask", types.Void,
		ir.NewParam("time", types.Double),
		ir.NewParam("fn_ptr", types.NewPointer(types.I8)),
		ir.NewParam("arg", types.Double),
		ir.NewParam("result_slot", types.NewPointer(types.Double)),
	)
}

// declareModuleFunctions pre-declares every top-level Fun as an llvm
// function signature, so forward and mutually recursive calls resolve
// regardless of declaration order during the main traversal.
func (e *Emitter) declareModuleFunctions(top *mir.Block) {
	for _, inst := range top.Instructions {
		fn, ok := inst.(*mir.Fun)
		if !ok {
			continue
		}
		e.declareFunctionSignature(fn)
	}
}

func (e *Emitter) declareFunctionSignature(fn *mir.Fun) {
	retType, err := e.lowerType(fn.Typ.Ret)
	if err != nil {
		e.Warnings = append(e.Warnings, diagnostics.Warn(diagnostics.ErrTypeLowering, err.Error()))
		retType = types.Void
	}

	params := make([]*ir.Param, len(fn.Typ.Args))
	for i, argType := range fn.Typ.Args {
		lt, err := e.lowerType(argType)
		if err != nil {
			lt = types.Double
		}
		name := ""
		if i < len(fn.Args) {
			name = fn.Args[i]
		} else {
			name = fmt.Sprintf("clsarg_%s", fn.LvName)
		}
		params[i] = ir.NewParam(name, lt)
	}

	llFn := e.module.NewFunc(fn.LvName, retType, params...)
	llFn.Linkage = enum.LinkageExternal
	e.functions[fn.LvName] = llFn
}

// createMainFunc synthesizes __mimium_main with the attribute set spec.md
// §4.3.1 mandates and makes its entry block the initial insertion point.
func (e *Emitter) createMainFunc() {
	fn := e.module.NewFunc(EntryFuncName, types.I64)
	fn.CallingConv = enum.CallingConvC
	fn.FuncAttrs = []ir.FuncAttribute{
		enum.FuncAttrNoUnwind,
		enum.FuncAttrNoInline,
		enum.FuncAttrOptnone,
	}
	fn.Linkage = enum.LinkageExternal

	block := fn.NewBlock("entry")
	e.mainFunc = fn
	e.entryBB = block
	e.cur = block
}

func constant64(v int64) value.Value {
	return newIntConst(types.I64, v)
}
