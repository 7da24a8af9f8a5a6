// Package typeenv implements the TypeEnv contract: a flat name→Type
// mapping. spec.md §9 "Name maps" notes that after closure conversion
// every name is globally unique, so unlike internal/scope (which must
// model shadowing across nested frames) a single flat map suffices here.
package typeenv

import "github.com/mimium-lang/mimium-cc/internal/mir"

// TypeEnv is a flat name→Type table.
type TypeEnv struct {
	types map[string]mir.Type
}

// New returns an empty type environment.
func New() *TypeEnv {
	return &TypeEnv{types: make(map[string]mir.Type)}
}

// Define records the type of name, overwriting any prior entry.
func (t *TypeEnv) Define(name string, typ mir.Type) {
	t.types[name] = typ
}

// Find returns the type recorded for name, or false if there is none. A
// miss here on a name closure conversion has classified as a capture is
// the fatal "type-environment miss" of spec.md §4.2.
func (t *TypeEnv) Find(name string) (mir.Type, bool) {
	typ, ok := t.types[name]
	return typ, ok
}
