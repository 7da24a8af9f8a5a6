package mirparser

// Program is the parse root: a flat sequence of top-level instruction
// lines, mirroring internal/mir.Printer.Dump's output for a top-level
// Block.
type Program struct {
	Instructions []*InstructionLine `@@*`
}

// InstructionLine is "lv_name = <rhs>".
type InstructionLine struct {
	LvName string `@Ident "="`
	RHS    *RHS   `@@`
}

// RHS is the tagged union over every instruction kind's right-hand side.
// Alternatives are tried in source order; Op and Number (the keyword-less
// forms) are listed last so every keyword-prefixed form gets first refusal.
type RHS struct {
	Symbol      *string          `  "symbol" @Ident`
	Ref         *string          `| "ref" @Ident`
	Alloca      *TypeNode        `| "alloca" @@`
	Time        *TimeRHS         `| "time" @@`
	Fun         *FunRHS          `| "fun" @@`
	MakeClosure *MakeClosureRHS  `| "makeclosure" @@`
	FcallTimed  *FcallRHS        `| "app@timed" @@`
	Fcall       *FcallRHS        `| "app" @@`
	Array       *ArrayRHS        `| "array" @@`
	ArrayAccess *ArrayAccessRHS  `| "arrayaccess" @@`
	If          *IfRHS           `| "if" @@`
	Return      *string          `| "return" @Ident`
	Assign      *AssignRHS       `| "assign" @@`
	Op          *OpRHS           `| @@`
	Number      *string          `| @Float`
}

// TimeRHS: "time <time_name> <value_name>".
type TimeRHS struct {
	TimeName  string `@Ident`
	ValueName string `@Ident`
}

// OpRHS: "<lhs> <op> <rhs>".
type OpRHS struct {
	Lhs string `@Ident`
	Op  string `@Op`
	Rhs string `@Ident`
}

// FunRHS: "(args) [fv[names]] { body }".
type FunRHS struct {
	Args    []string `"(" ( @Ident ( "," @Ident )* )? ")"`
	FreeVar *FvList  `@@?`
	Body    *Program `"{" @@ "}"`
}

// FvList: "fv [ name, name ]".
type FvList struct {
	Names []string `"fv" "[" ( @Ident ( "," @Ident )* )? "]"`
}

// MakeClosureRHS: "<fun_name> [captures] <type>".
type MakeClosureRHS struct {
	FunName  string    `@Ident`
	Captures []string  `"[" ( @Ident ( "," @Ident )* )? "]"`
	EnvType  *TypeNode `@@`
}

// FcallRHS: "(kind) callee(arg, arg, ...)".
type FcallRHS struct {
	Kind   string   `"(" @Ident ")"`
	Callee string   `@Ident`
	Args   []string `"(" ( @Ident ( "," @Ident )* )? ")"`
}

// ArrayRHS: "[elem, elem]".
type ArrayRHS struct {
	Elems []string `"[" ( @Ident ( "," @Ident )* )? "]"`
}

// ArrayAccessRHS: "arr_name [ index ]".
type ArrayAccessRHS struct {
	ArrayName string `@Ident`
	Index     string `"[" @Ident "]"`
}

// IfRHS: "cond { then } else { else }".
type IfRHS struct {
	Cond string   `@Ident`
	Then *Program `"{" @@ "}"`
	Else *Program `"else" "{" @@ "}"`
}

// AssignRHS: "target value".
type AssignRHS struct {
	Target string `@Ident`
	Value  string `@Ident`
}

// TypeNode is the tagged union over MIR's closed type universe's textual
// form (mir.Type.String() output).
type TypeNode struct {
	Function *FunctionTypeNode `  @@`
	Struct   *StructTypeNode   `| "Struct" @@`
	Time     *TimeTypeNode     `| "Time" @@`
	Named    *string           `| @Ident`
}

// FunctionTypeNode: "(Type, Type) -> Type".
type FunctionTypeNode struct {
	Args []*TypeNode `"(" ( @@ ( "," @@ )* )? ")"`
	Ret  *TypeNode   `"->" @@`
}

// StructTypeNode: "(Type, Type)".
type StructTypeNode struct {
	Fields []*TypeNode `"(" ( @@ ( "," @@ )* )? ")"`
}

// TimeTypeNode: "(Type)".
type TimeTypeNode struct {
	Inner *TypeNode `"(" @@ ")"`
}
