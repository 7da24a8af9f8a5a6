package mir

import (
	"strconv"
	"strings"
)

// Block is an ordered sequence of instructions with a label and a mutable
// indent level used only by the textual dumper. Blocks are owned by the
// instruction that introduces them (Fun.Body, If.Then, If.Else) or, for the
// top level, by the compilation unit itself; there is no prev/next sibling
// chain (see DESIGN.md on the redesign away from MIRblock's cyclic links).
type Block struct {
	Label        string
	Indent       int
	Instructions []Instruction
}

// NewBlock returns an empty block labeled label.
func NewBlock(label string) *Block {
	return &Block{Label: label, Instructions: nil}
}

// Append adds inst to the end of the block.
func (b *Block) Append(inst Instruction) {
	b.Instructions = append(b.Instructions, inst)
}

// InsertAfter inserts inst immediately after the instruction named
// afterName, used by closure conversion to place a MakeClosure right after
// its Fun. It is a no-op if afterName is not found.
func (b *Block) InsertAfter(afterName string, inst Instruction) {
	for i, existing := range b.Instructions {
		if existing.ResultName() == afterName {
			b.Instructions = append(b.Instructions, nil)
			copy(b.Instructions[i+2:], b.Instructions[i+1:])
			b.Instructions[i+1] = inst
			return
		}
	}
}

// RemoveNamed deletes the instruction whose result name equals name,
// returning it and true if found. Used by closure conversion to hoist a
// nested Fun out of its enclosing body once it has been copied to the
// top-level block.
func (b *Block) RemoveNamed(name string) (Instruction, bool) {
	for i, existing := range b.Instructions {
		if existing.ResultName() == name {
			removed := existing
			b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
			return removed, true
		}
	}
	return nil, false
}

// String renders a flat, unindented dump of the block's instructions. For
// the canonical indented dump used by round-trip tests, see Printer in
// printer.go.
func (b *Block) String() string {
	var out strings.Builder
	for _, inst := range b.Instructions {
		out.WriteString(inst.String())
		out.WriteString("\n")
	}
	return out.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FindByName searches block and every nested body it owns (Fun.Body,
// If.Then/Else) for the instruction whose ResultName equals name. Used by
// the LSP hover surface, which has only a bare lv_name to go on.
func FindByName(block *Block, name string) (Instruction, bool) {
	for _, inst := range block.Instructions {
		if inst.ResultName() == name {
			return inst, true
		}
		switch v := inst.(type) {
		case *Fun:
			if found, ok := FindByName(v.Body, name); ok {
				return found, true
			}
		case *If:
			if found, ok := FindByName(v.Then, name); ok {
				return found, true
			}
			if found, ok := FindByName(v.Else, name); ok {
				return found, true
			}
		}
	}
	return nil, false
}
