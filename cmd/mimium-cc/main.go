// SPDX-License-Identifier: Apache-2.0

// Command mimium-cc drives the closure-conversion and code-emission core
// over a standalone textual MIR file: parse, convert, lower, print.
// Grounded on the teacher's cmd/kanso-cli (flat flag parsing, ParseFile +
// caret error reporting, fatih/color status lines).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/mimium-lang/mimium-cc/internal/closure"
	"github.com/mimium-lang/mimium-cc/internal/diagnostics"
	"github.com/mimium-lang/mimium-cc/internal/lower"
	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/mirparser"
	"github.com/mimium-lang/mimium-cc/internal/runtimeabi"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

func main() {
	dumpMIR := flag.Bool("dump-mir", false, "print the closure-converted MIR instead of lowering it")
	out := flag.String("o", "", "write LLVM IR to this file instead of stdout")
	explain := flag.String("explain", "", "print the human-readable description of a diagnostic code (e.g. E1202) and exit")
	flag.Parse()

	if *explain != "" {
		fmt.Println(diagnostics.Description(*explain))
		return
	}

	if flag.NArg() < 1 {
		fmt.Println("Usage: mimium-cc [-dump-mir] [-o out.ll] [-explain CODE] <file.mir>")
		os.Exit(1)
	}

	path := flag.Arg(0)
	program, err := mirparser.ParseFile(path)
	if err != nil {
		os.Exit(1) // mirparser already printed a caret-annotated diagnostic
	}

	top, err := mirparser.ToBlock(program)
	if err != nil {
		color.Red("mimium-cc: %s", err)
		os.Exit(1)
	}

	tenv := typeenv.InferFromMIR(top)
	result, err := closure.Convert(top, scope.NewRoot(), tenv)
	if err != nil {
		color.Red("mimium-cc: closure conversion failed: %s", err)
		os.Exit(1)
	}

	if *dumpMIR {
		fmt.Print(mir.Dump(result.Top))
		color.Green("✅ closure conversion OK: %s", path)
		return
	}

	e := lower.New()
	module, taskTypes, err := e.Emit(result.Top, result.KnownFunctions)
	if err != nil {
		color.Red("mimium-cc: code emission failed: %s", err)
		os.Exit(1)
	}
	for _, w := range e.Warnings {
		fmt.Fprintln(os.Stderr, w.Error())
	}

	rendered := runtimeabi.OutputToStream(module)
	if *out == "" {
		fmt.Print(rendered)
	} else {
		if err := os.WriteFile(*out, []byte(rendered), 0o644); err != nil {
			color.Red("mimium-cc: %s", err)
			os.Exit(1)
		}
	}

	color.Green("✅ emitted %s (%d task type(s))", path, len(taskTypes))
}
