package mir

import (
	"fmt"
	"strings"
)

// Printer renders a Block to its canonical textual dump: one line per
// instruction, child blocks (Fun bodies, If arms) indented one level
// deeper than their parent. This is the debug artifact spec.md §4.1 and
// §8 describe — round-tripped by internal/mirparser.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter returns a fresh printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// Dump renders block and everything it owns.
func Dump(block *Block) string {
	p := NewPrinter()
	p.printBlock(block)
	return p.output.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.output, format, args...)
	p.output.WriteString("\n")
}

func (p *Printer) printBlock(b *Block) {
	b.Indent = p.indent
	for _, inst := range b.Instructions {
		p.printInstruction(inst)
	}
}

func (p *Printer) printInstruction(inst Instruction) {
	switch v := inst.(type) {
	case *Fun:
		p.writeLine("%s = fun(%s)%s {", v.LvName, strings.Join(v.Args, ", "), freeVarSuffix(v.FreeVars))
		p.indent++
		p.printBlock(v.Body)
		p.indent--
		p.writeLine("}")
	case *If:
		p.writeLine("%s = if %s {", v.LvName, v.Cond)
		p.indent++
		p.printBlock(v.Then)
		p.indent--
		p.writeLine("} else {")
		p.indent++
		p.printBlock(v.Else)
		p.indent--
		p.writeLine("}")
	default:
		p.writeLine("%s", inst.String())
	}
}

func freeVarSuffix(fv []string) string {
	if len(fv) == 0 {
		return ""
	}
	return " fv[" + strings.Join(fv, ", ") + "]"
}
