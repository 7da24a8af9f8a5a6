// Package repl SPDX-License-Identifier: Apache-2.0
//
// repl is a line-oriented shell over the closure-conversion/emission
// core: each line typed is one textual MIR instruction (internal/mir's
// dump syntax), accumulated into a growing top-level block. Commands
// prefixed with ":" drive the pipeline stages on the block built so far.
// Grounded on the teacher's scan-parse-print loop shape, replacing its
// kanso-lang lexer/parser with internal/mirparser, internal/closure, and
// internal/lower.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mimium-lang/mimium-cc/internal/closure"
	"github.com/mimium-lang/mimium-cc/internal/lower"
	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/mirparser"
	"github.com/mimium-lang/mimium-cc/internal/runtimeabi"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

const PROMPT = "mir> "

// Start runs the REPL, reading lines from in and writing all output to out.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	lines := make([]string, 0)

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case ":dump":
			printDump(out, lines)
		case ":convert":
			runConvert(out, lines)
		case ":emit":
			runEmit(out, lines)
		case ":reset":
			lines = lines[:0]
			fmt.Fprintln(out, "buffer cleared")
		case ":quit", ":exit":
			return
		default:
			lines = append(lines, line)
			fmt.Fprintf(out, "buffered %d instruction(s)\n", len(lines))
		}
	}
}

func parseBuffer(lines []string) (*mir.Block, error) {
	source := strings.Join(lines, "\n")
	program, err := mirparser.ParseString("<repl>", source)
	if err != nil {
		return nil, err
	}
	return mirparser.ToBlock(program)
}

func printDump(out io.Writer, lines []string) {
	top, err := parseBuffer(lines)
	if err != nil {
		fmt.Fprintf(out, "parse error: %s\n", err)
		return
	}
	fmt.Fprint(out, mir.Dump(top))
}

func runConvert(out io.Writer, lines []string) {
	top, err := parseBuffer(lines)
	if err != nil {
		fmt.Fprintf(out, "parse error: %s\n", err)
		return
	}
	tenv := typeenv.InferFromMIR(top)
	result, err := closure.Convert(top, scope.NewRoot(), tenv)
	if err != nil {
		fmt.Fprintf(out, "closure conversion error: %s\n", err)
		return
	}
	fmt.Fprint(out, mir.Dump(result.Top))
}

func runEmit(out io.Writer, lines []string) {
	top, err := parseBuffer(lines)
	if err != nil {
		fmt.Fprintf(out, "parse error: %s\n", err)
		return
	}
	tenv := typeenv.InferFromMIR(top)
	result, err := closure.Convert(top, scope.NewRoot(), tenv)
	if err != nil {
		fmt.Fprintf(out, "closure conversion error: %s\n", err)
		return
	}
	e := lower.New()
	module, _, err := e.Emit(result.Top, result.KnownFunctions)
	if err != nil {
		fmt.Fprintf(out, "emission error: %s\n", err)
		return
	}
	for _, w := range e.Warnings {
		fmt.Fprintln(out, w.Error())
	}
	fmt.Fprint(out, runtimeabi.OutputToStream(module))
}
