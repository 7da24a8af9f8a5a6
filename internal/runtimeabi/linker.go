// Package runtimeabi models the boundary between this module's code
// emitter and the external JIT/linker and scheduler that actually run
// the emitted module (spec.md §4.3.7, §6). Neither is implemented here:
// spec.md §1 scopes them out explicitly. Linker is the seam a concrete
// JIT backend (e.g. an LLVM ORC JIT binding, reached through cgo, or a
// process that shells out to llc+a dynamic linker) plugs into.
package runtimeabi

import (
	"fmt"
	"unsafe"

	"github.com/llir/llvm/ir"

	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
)

// Linker is the external collaborator that turns an emitted *ir.Module
// into executable code and resolves entry-point addresses. spec.md §7.5
// models every failure here as a single ErrJIT diagnostic class: this
// package does not attempt to further categorize linker-internal errors.
type Linker interface {
	// AddModule hands ownership of module to the linker for compilation.
	AddModule(module *ir.Module) error
	// Lookup resolves name (e.g. lower.EntryFuncName) to a callable
	// address in the linked image.
	Lookup(name string) (uintptr, error)
}

// Execute implements spec.md §6's execute(): add the module, resolve the
// entry symbol, and call through the resolved address as func() int64.
// Turning a bare uintptr into a callable Go value needs unsafe regardless
// of which concrete Linker is plugged in — there is no third-party
// replacement for manufacturing a function value over JIT-resolved
// machine code from within Go itself.
func Execute(l Linker, module *ir.Module, entry string) (int64, error) {
	if err := l.AddModule(module); err != nil {
		return 0, diagnostics.Fatal(diagnostics.ErrJIT, fmt.Sprintf("AddModule: %s", err))
	}
	addr, err := l.Lookup(entry)
	if err != nil {
		return 0, diagnostics.Fatal(diagnostics.ErrJIT, fmt.Sprintf("Lookup(%s): %s", entry, err))
	}
	// A Go func value points at a word holding the code address, so the
	// func value built here is a pointer to addr.
	entryPtr := &addr
	fn := *(*func() int64)(unsafe.Pointer(&entryPtr))
	return fn(), nil
}

// OutputToStream implements spec.md §6's outputToStream(): render module
// as LLVM textual IR and return it as a string. This is pure formatting
// and never touches the Linker.
func OutputToStream(module *ir.Module) string {
	return module.String()
}
