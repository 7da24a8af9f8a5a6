// Package diagnostics implements the structured, Rust-style error
// reporting used by closure conversion and code emission, grounded on the
// teacher's internal/errors package.
package diagnostics

// Error code ranges:
// E1000-E1099: closure conversion errors
// E1100-E1199: type lowering errors
// E1200-E1299: name/callee resolution errors
// W1300-W1399: non-fatal emission warnings (unknown opcode, synthesized
// fallback return)
// E1400-E1499: JIT/link errors
const (
	// ErrNameNotBound: an operand refers to a name absent from scope during
	// closure conversion (spec.md §4.2 "Failure modes").
	ErrNameNotBound = "E1001"

	// ErrTypeEnvMiss: a captured name has no entry in TypeEnv.
	ErrTypeEnvMiss = "E1002"

	// ErrTypeLowering: an unrecognized MIR type reached the lowerer
	// (spec.md §7.1).
	ErrTypeLowering = "E1101"

	// ErrNameResolution: an operand is absent from namemap after closure
	// conversion (spec.md §7.2).
	ErrNameResolution = "E1201"

	// ErrCalleeResolution: a direct call names a function neither builtin
	// nor present in the module (spec.md §7.3, §4.3.4 "missing callee").
	ErrCalleeResolution = "E1202"

	// ErrUnreachableOpcode: an unknown Op opcode was lowered to
	// Unreachable. Non-fatal at compile time (spec.md §7.4).
	ErrUnreachableOpcode = "W1301"

	// ErrJIT: the external JIT/linker reported a failure (spec.md §7.5).
	ErrJIT = "E1401"

	// ErrVoidFallback: control fell off the end of a non-void function
	// body without a Return instruction; a synthesized 0.0 return keeps
	// the module well-formed (spec.md §4.3.4 "Fun").
	ErrVoidFallback = "W1302"
)

// IsWarning reports whether code denotes a non-fatal diagnostic.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// Description returns a human-readable description of code, for use in
// tooling (mimium-cc's -explain flag).
func Description(code string) string {
	switch code {
	case ErrNameNotBound:
		return "operand refers to a name not bound in any enclosing scope"
	case ErrTypeEnvMiss:
		return "captured variable has no recorded type in the type environment"
	case ErrTypeLowering:
		return "MIR type has no low-level lowering"
	case ErrNameResolution:
		return "operand name is absent from the emitter's name map"
	case ErrCalleeResolution:
		return "call target is neither a builtin nor a module function"
	case ErrUnreachableOpcode:
		return "operator has no lowering; emits a runtime trap if reached"
	case ErrJIT:
		return "JIT or linker reported a failure"
	case ErrVoidFallback:
		return "control fell off the end of a non-void function; a 0.0 return was synthesized"
	default:
		return "unknown diagnostic code"
	}
}
