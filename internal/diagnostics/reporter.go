package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a Diagnostic.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warning"
	LevelNote  Level = "note"
)

// Position locates a diagnostic in a textual MIR source. Line and Column
// are 1-based; a zero value means "unknown" (the closure converter and
// emitter operate on in-memory MIR that may not carry source positions —
// only internal/mirparser's output reliably does).
type Position struct {
	Line   int
	Column int
}

// Diagnostic is a single structured compiler error or warning.
type Diagnostic struct {
	Level    Level
	Code     string
	Message  string
	Position Position
	Notes    []string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s[%s]: %s", d.Level, d.Code, d.Message)
}

// Reporter formats diagnostics against an (optional) source listing, in
// the teacher's Rust-like caret style.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter returns a reporter for filename; source may be empty when
// diagnostics originate from in-memory MIR with no backing text.
func NewReporter(filename, source string) *Reporter {
	var lines []string
	if source != "" {
		lines = strings.Split(source, "\n")
	}
	return &Reporter{filename: filename, lines: lines}
}

// Format renders d for terminal output.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder
	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		fmt.Fprintf(&out, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)
	} else {
		fmt.Fprintf(&out, "%s: %s\n", levelColor(string(d.Level)), d.Message)
	}

	if d.Position.Line > 0 {
		fmt.Fprintf(&out, "  %s %s:%d:%d\n", dim("-->"), r.filename, d.Position.Line, d.Position.Column)
		if d.Position.Line-1 < len(r.lines) && d.Position.Line-1 >= 0 {
			fmt.Fprintf(&out, "  %s %s\n", dim("|"), bold(r.lines[d.Position.Line-1]))
		}
	}

	for _, note := range d.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		fmt.Fprintf(&out, "  %s %s\n", noteColor("note:"), note)
	}

	return out.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case LevelWarn:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// Fatal constructs an error-level Diagnostic with no position information,
// the common case inside the closure converter and emitter where MIR
// carries no source span.
func Fatal(code, message string, notes ...string) Diagnostic {
	return Diagnostic{Level: LevelError, Code: code, Message: message, Notes: notes}
}

// Warn constructs a warning-level Diagnostic.
func Warn(code, message string, notes ...string) Diagnostic {
	return Diagnostic{Level: LevelWarn, Code: code, Message: message, Notes: notes}
}
