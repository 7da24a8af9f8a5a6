// Package mir is the mid-level intermediate representation shared by the
// closure converter and the code emitter.
package mir

import "strings"

// Type is the closed universe of MIR types: Float, Void, Function, Struct,
// and Time. Types are value-semantic and compared structurally, never by
// identity.
type Type interface {
	String() string
	Equal(other Type) bool
}

// Float is the only scalar type in MIR; it lowers to a 64-bit IEEE double.
type Float struct{}

func (Float) String() string       { return "Float" }
func (Float) Equal(o Type) bool    { _, ok := o.(Float); return ok }

// Void carries no value.
type Void struct{}

func (Void) String() string    { return "Void" }
func (Void) Equal(o Type) bool { _, ok := o.(Void); return ok }

// Function is the type of a MIR function, before and after closure
// conversion appends a trailing environment-struct parameter.
type Function struct {
	Args []Type
	Ret  Type
}

func (f Function) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(") -> ")
	if f.Ret != nil {
		b.WriteString(f.Ret.String())
	} else {
		b.WriteString("Void")
	}
	return b.String()
}

func (f Function) Equal(o Type) bool {
	other, ok := o.(Function)
	if !ok || len(f.Args) != len(other.Args) {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	if (f.Ret == nil) != (other.Ret == nil) {
		return false
	}
	if f.Ret == nil {
		return true
	}
	return f.Ret.Equal(other.Ret)
}

// WithTrailingArg returns a copy of f with t appended to Args, used when a
// closure-converted Fun gains an environment-struct parameter.
func (f Function) WithTrailingArg(t Type) Function {
	args := make([]Type, len(f.Args)+1)
	copy(args, f.Args)
	args[len(f.Args)] = t
	return Function{Args: args, Ret: f.Ret}
}

// Struct only ever appears in MIR as a closure environment: its low-level
// lowering is a pointer to a record of pointers-to-field, never a value
// struct. See internal/lower for that asymmetry.
type Struct struct {
	Fields []Type
}

func (s Struct) String() string {
	var b strings.Builder
	b.WriteString("Struct(")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.String())
	}
	b.WriteString(")")
	return b.String()
}

func (s Struct) Equal(o Type) bool {
	other, ok := o.(Struct)
	if !ok || len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if !s.Fields[i].Equal(other.Fields[i]) {
			return false
		}
	}
	return true
}

// Time(T) denotes the pair {double timestamp, T value}. Its low-level
// lowering is a two-field record uniqued in the module by Time(T).String().
type Time struct {
	Inner Type
}

func (t Time) String() string {
	inner := "Void"
	if t.Inner != nil {
		inner = t.Inner.String()
	}
	return "Time(" + inner + ")"
}

func (t Time) Equal(o Type) bool {
	other, ok := o.(Time)
	if !ok {
		return false
	}
	if (t.Inner == nil) != (other.Inner == nil) {
		return false
	}
	if t.Inner == nil {
		return true
	}
	return t.Inner.Equal(other.Inner)
}
