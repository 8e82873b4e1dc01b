package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/shell"
	"src.gsh.sh/pkg/token"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	sh      *shell.Shell
	content map[lsp.DocumentURI]string
}

func newServer(sh *shell.Shell) *server {
	return &server{sh, make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":              s.initialize,
		"textDocument/didOpen":    s.didOpen,
		"textDocument/didChange":  s.didChange,
		"textDocument/didClose":   s.didClose,
		"textDocument/hover":      s.hover,
		"textDocument/completion": s.completion,

		// Required by the protocol.
		"initialized": noop,
		"shutdown":    noop,
		"exit":        exit,
		// Called by clients even when the server doesn't advertise support.
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func exit(_ context.Context, conn jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, conn.Close()
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider: true,
			CompletionProvider: &lsp.CompletionOptions{
				TriggerCharacters: []string{"-", "/", " "},
			},
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.content[uri] = content
	s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil || len(params.ContentChanges) == 0 {
		return nil, errInvalidParams
	}

	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.content[uri] = content
	s.publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didClose(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	delete(s.content, params.TextDocument.URI)
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	l := lineAt(content, lspPositionToIdx(content, params.Position))
	seg := segmentAt(s.sh.Operators, l.text, l.dot)
	words, _ := token.Tokenize(l.text[seg.From:seg.To])
	for i, w := range words {
		if !w.Contains(l.dot - seg.From) {
			continue
		}
		m, n, err := s.sh.Registry.ResolvePath(token.Values(words[:i+1]))
		if err != nil || n <= i {
			break
		}
		r := lspRangeFromRange(content, w.Ranging.Shift(l.from+seg.From))
		return lsp.Hover{
			Contents: []lsp.MarkedString{lsp.RawMarkedString("```\n" + m.Help() + "```")},
			Range:    &r,
		}, nil
	}
	return lsp.Hover{}, nil
}

// Finds the text between the operators around dot.
func segmentAt(ops *token.Table, text string, dot int) diag.Ranging {
	seg := diag.Ranging{From: 0, To: len(text)}
	matches, _ := ops.Operators(text)
	for _, m := range matches {
		if m.To <= dot {
			seg.From = m.To
		} else if m.From >= dot {
			seg.To = m.From
			break
		}
	}
	return seg
}

func (s *server) completion(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.CompletionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	l := lineAt(content, lspPositionToIdx(content, params.Position))
	result := s.sh.Completer.Complete(l.text, l.dot)

	lspItems := make([]lsp.CompletionItem, len(result.Items))
	lspRange := lspRangeFromRange(content, result.Replace.Shift(l.from))
	kind := completionKinds[result.Name]
	for i, item := range result.Items {
		lspItems[i] = lsp.CompletionItem{
			Label:  item.ToShow,
			Kind:   kind,
			Detail: item.Description,
			TextEdit: &lsp.TextEdit{
				Range:   lspRange,
				NewText: item.ToInsert,
			},
		}
	}
	return lspItems, nil
}

var completionKinds = map[string]lsp.CompletionItemKind{
	"command":  lsp.CIKFunction,
	"child":    lsp.CIKModule,
	"option":   lsp.CIKField,
	"value":    lsp.CIKValue,
	"argument": lsp.CIKValue,
	"redirect": lsp.CIKFile,
}

func (s *server) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	diags := s.diagnostics(content)
	go conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags})
}

// Checks each line that the shell would run when running the document as a
// script.
func (s *server) diagnostics(content string) []lsp.Diagnostic {
	diags := []lsp.Diagnostic{}
	from := 0
	for _, text := range strings.SplitAfter(content, "\n") {
		l := line{from, strings.TrimRight(text, "\r\n"), 0}
		from += len(text)
		if trimmed := strings.TrimSpace(l.text); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, err := range s.sh.Check(l.text) {
			r := diag.Ranging{From: 0, To: len(l.text)}
			var e *diag.Error
			if errors.As(err, &e) && e.Ranging != (diag.Ranging{}) {
				r = e.Ranging
			}
			diags = append(diags, lsp.Diagnostic{
				Range:    lspRangeFromRange(content, r.Shift(l.from)),
				Severity: lsp.Error,
				Source:   "gsh",
				Message:  err.Error(),
			})
		}
	}
	return diags
}

// A line of a document.
type line struct {
	// Position of the line in the document.
	from int
	text string
	// Position within text.
	dot int
}

// Finds the line containing the position idx of s.
func lineAt(s string, idx int) line {
	from := strings.LastIndexByte(s[:idx], '\n') + 1
	to := len(s)
	if i := strings.IndexByte(s[idx:], '\n'); i != -1 {
		to = idx + i
	}
	text := strings.TrimSuffix(s[from:to], "\r")
	return line{from, text, min(idx-from, len(text))}
}

func lspRangeFromRange(s string, r diag.Ranger) lsp.Range {
	rg := r.Range()
	return lsp.Range{
		Start: lspPositionFromIdx(s, rg.From),
		End:   lspPositionFromIdx(s, rg.To),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// Generates (index, lspPosition) pairs in s, stopping if f returns false.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if !lastCR {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			// One UTF-16 code unit.
			p.Character++
		default:
			// A surrogate pair.
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
