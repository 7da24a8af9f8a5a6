// Package mirlsp implements an LSP server over textual MIR files: parse
// on open/change, publish a diagnostic on syntax failure, and otherwise
// run closure conversion + emission on the same open/change to surface
// compile-time diagnostics too, and answer hover requests over lv_names (spec.md §4.8). Grounded
// on the teacher's internal/lsp (KansoHandler, the
// uriToPath/sendDiagnosticNotification helpers, and the same
// TextDocumentSync/PublishDiagnostics wiring), trimmed to the one
// document kind this server understands.
package mirlsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/mimium-lang/mimium-cc/internal/closure"
	"github.com/mimium-lang/mimium-cc/internal/lower"
	"github.com/mimium-lang/mimium-cc/internal/mir"
	"github.com/mimium-lang/mimium-cc/internal/mirparser"
	"github.com/mimium-lang/mimium-cc/internal/scope"
	"github.com/mimium-lang/mimium-cc/internal/typeenv"
)

// Handler implements the subset of the LSP protocol mirlsp serves.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	blocks  map[string]*mir.Block
	types   map[string]*typeenv.TypeEnv
}

// NewHandler returns a fresh Handler with empty document state.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		blocks:  make(map[string]*mir.Block),
		types:   make(map[string]*typeenv.TypeEnv),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("mimium-lsp: Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider: true,
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.refresh(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	return h.refresh(ctx, params.TextDocument.URI)
}

// TextDocumentHover implements spec.md §4.8's hover contract: looks up the
// word under the cursor in the last successfully parsed document and, if
// it names an instruction's lv_name, reports its mir.Type plus
// kind-specific detail (a Fcall's call kind, a Fun's free-variable list).
// A name with no defining instruction but an "fv_" prefix is reported as a
// free-variable capture of its underlying name instead.
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	content, hasContent := h.content[path]
	block, hasBlock := h.blocks[path]
	tenv, hasTypes := h.types[path]
	h.mu.RUnlock()
	if !hasContent || !hasBlock || !hasTypes {
		return nil, nil
	}

	word := wordAt(content, params.Position)
	if word == "" {
		return nil, nil
	}

	text := describeName(block, tenv, word)
	if text == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: text},
	}, nil
}

// wordAt extracts the identifier under pos from content, splitting on
// non-identifier runes since the MIR dump format has no other notion of a
// "word".
func wordAt(content string, pos protocol.Position) string {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	runes := []rune(lines[pos.Line])
	idx := int(pos.Character)
	if idx > len(runes) {
		idx = len(runes)
	}
	isWordChar := func(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }
	start := idx
	for start > 0 && isWordChar(runes[start-1]) {
		start--
	}
	end := idx
	for end < len(runes) && isWordChar(runes[end]) {
		end++
	}
	if start == end {
		return ""
	}
	return string(runes[start:end])
}

// describeName implements spec.md §4.8's per-kind hover detail.
func describeName(block *mir.Block, tenv *typeenv.TypeEnv, name string) string {
	if inst, ok := mir.FindByName(block, name); ok {
		var b strings.Builder
		if typ, ok := tenv.Find(name); ok {
			fmt.Fprintf(&b, "%s: %s", name, typ.String())
		} else {
			b.WriteString(name)
		}
		switch v := inst.(type) {
		case *mir.Fcall:
			fmt.Fprintf(&b, "\ncall kind: %s", v.Kind.String())
		case *mir.Fun:
			if len(v.FreeVars) > 0 {
				fmt.Fprintf(&b, "\nfree variables: [%s]", strings.Join(v.FreeVars, ", "))
			} else {
				b.WriteString("\nfree variables: none")
			}
		}
		return b.String()
	}

	if base, ok := strings.CutPrefix(name, "fv_"); ok {
		if typ, ok := tenv.Find(base); ok {
			return fmt.Sprintf("%s: free-variable capture of %q (%s)", name, base, typ.String())
		}
		return fmt.Sprintf("%s: free-variable capture of %q", name, base)
	}

	if typ, ok := tenv.Find(name); ok {
		return fmt.Sprintf("%s: %s", name, typ.String())
	}
	return ""
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.blocks, path)
	delete(h.types, path)
	return nil
}

// refresh re-reads the document from disk, parses it, and — when parsing
// succeeds — runs closure conversion and emission so both pipeline
// stages' diagnostics surface in the editor.
func (h *Handler) refresh(ctx *glsp.Context, uri protocol.DocumentUri) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mimium-lsp: failed to read %s: %w", path, err)
	}

	diags := h.load(path, string(content))
	sendDiagnostics(ctx, uri, diags)
	return nil
}

// load runs the parse/convert/emit pipeline over content, storing document
// state for hover lookups on success, and returns the diagnostics the
// pipeline produced (syntax errors, conversion fatals, emission
// fatals/warnings). Separated from refresh so it can be exercised without
// a live glsp.Context.
func (h *Handler) load(path, content string) []protocol.Diagnostic {
	program, parseErr := mirparser.ParseString(path, content)
	if parseErr != nil {
		return []protocol.Diagnostic{syntaxDiagnostic(parseErr)}
	}

	top, err := mirparser.ToBlock(program)
	if err != nil {
		return []protocol.Diagnostic{messageDiagnostic(err.Error())}
	}

	tenv := typeenv.InferFromMIR(top)
	result, convErr := closure.Convert(top, scope.NewRoot(), tenv)
	if convErr != nil {
		return []protocol.Diagnostic{messageDiagnostic(convErr.Error())}
	}

	e := lower.New()
	var diags []protocol.Diagnostic
	if _, _, emitErr := e.Emit(result.Top, result.KnownFunctions); emitErr != nil {
		diags = append(diags, messageDiagnostic(emitErr.Error()))
	}
	for _, w := range e.Warnings {
		diags = append(diags, warningDiagnostic(w.Error()))
	}

	h.mu.Lock()
	h.content[path] = content
	h.blocks[path] = result.Top
	h.types[path] = typeenv.InferFromMIR(result.Top)
	h.mu.Unlock()

	return diags
}

func syntaxDiagnostic(err error) protocol.Diagnostic {
	return messageDiagnostic(fmt.Sprintf("syntax error: %s", err))
}

func messageDiagnostic(msg string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: protocol.Position{}, End: protocol.Position{Character: 1}},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("mimium-cc"),
		Message:  msg,
	}
}

func warningDiagnostic(msg string) protocol.Diagnostic {
	d := messageDiagnostic(msg)
	d.Severity = ptrSeverity(protocol.DiagnosticSeverityWarning)
	return d
}

func sendDiagnostics(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool                                       { return &b }
func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity     { return &s }
func ptrString(s string) *string                                 { return &s }
