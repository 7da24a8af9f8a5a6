// Package scope implements the SymbolEnv contract closure conversion
// depends on: a chain of scope frames supporting child creation, raw
// binding, and free-variable classification. spec.md treats SymbolEnv as
// an external collaborator and describes only its interface; this
// implementation exists so the converter in internal/closure is
// self-contained and testable without an upstream front end.
package scope

// Binding records why a name is bound in a scope: as a function argument,
// a locally-computed temporary, or a free-variable capture renamed to
// fv_<name>.
type Binding struct {
	Name string
	Tag  string
}

// Env is one frame of the scope chain. A frame holds only the bindings
// introduced within it; Lookup walks outward through Parent.
type Env struct {
	Label    string
	Parent   *Env
	bindings map[string]Binding
	// funcRoot marks the frame at which a function body begins: names
	// bound at or below funcRoot are local to the function; names bound
	// in some strict ancestor above funcRoot are free variables of it.
	funcRoot bool
	globals  map[string]bool
}

// NewRoot returns the top-level scope frame. globals names identifiers
// that are never free variables regardless of where they are bound
// (top-level function names, global constants).
func NewRoot() *Env {
	return &Env{Label: "<root>", bindings: make(map[string]Binding), funcRoot: true, globals: make(map[string]bool)}
}

// CreateChild pushes a new scope frame labeled label and returns its
// handle. Passing isFunctionRoot true marks the new frame as the entry
// scope of a function body — the boundary IsFreeVariable uses to decide
// whether a name is local or captured.
func (e *Env) CreateChild(label string, isFunctionRoot bool) *Env {
	return &Env{
		Label:    label,
		Parent:   e,
		bindings: make(map[string]Binding),
		funcRoot: isFunctionRoot,
		globals:  e.globals,
	}
}

// MarkGlobal registers name as a global constant or top-level function
// name: IsFreeVariable never reports it as a capture.
func (e *Env) MarkGlobal(name string) {
	e.globals[name] = true
}

// IsGlobal reports whether name was registered via MarkGlobal anywhere in
// the chain.
func (e *Env) IsGlobal(name string) bool {
	return e.globals[name]
}

// IsVariableSet reports whether name is bound in this frame or any
// ancestor.
func (e *Env) IsVariableSet(name string) bool {
	_, _, ok := e.lookup(name)
	return ok
}

// SetVariableRaw binds name in this frame with the given tag, shadowing
// any binding of the same name in an ancestor frame.
func (e *Env) SetVariableRaw(name, tag string) {
	e.bindings[name] = Binding{Name: name, Tag: tag}
}

// Lookup returns the binding for name and the frame that owns it, walking
// outward from e.
func (e *Env) Lookup(name string) (Binding, *Env, bool) {
	return e.lookup(name)
}

func (e *Env) lookup(name string) (Binding, *Env, bool) {
	for frame := e; frame != nil; frame = frame.Parent {
		if b, ok := frame.bindings[name]; ok {
			return b, frame, true
		}
	}
	return Binding{}, nil, false
}

// IsFreeVariable classifies name against e, the scope at the point of
// reference inside some function body. It returns (bound, nonLocal):
// bound is false if name is unbound anywhere in the chain; nonLocal is
// true when name is bound strictly above the nearest enclosing function
// root and is not a registered global.
func (e *Env) IsFreeVariable(name string) (bound, nonLocal bool) {
	if e.IsGlobal(name) {
		return true, false
	}
	_, owner, ok := e.lookup(name)
	if !ok {
		return false, false
	}
	root := e.nearestFuncRoot()
	for frame := e; frame != nil; frame = frame.Parent {
		if frame == owner {
			return true, false
		}
		if frame == root {
			break
		}
	}
	return true, true
}

func (e *Env) nearestFuncRoot() *Env {
	for frame := e; frame != nil; frame = frame.Parent {
		if frame.funcRoot {
			return frame
		}
	}
	return e
}
