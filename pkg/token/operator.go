// Package token implements the control operator table and the quote-aware
// tokenizer that the line parser and the completion engine share.
package token

import (
	"fmt"
	"sort"

	"src.gsh.sh/pkg/diag"
)

// Operator identifies a control operator. Values beyond the built-in ones
// can be used by tables built with NewTable.
type Operator int

// Built-in operators.
const (
	None Operator = iota
	Pipe
	PipeOutAndErr
	Or
	And
	Amp
	End
	OverwriteOut
	AppendOut
	OverwriteIn
	OverwriteErr
	AppendErr
	OverwriteOutAndErr
)

var operatorNames = [...]string{
	None:               "None",
	Pipe:               "Pipe",
	PipeOutAndErr:      "PipeOutAndErr",
	Or:                 "Or",
	And:                "And",
	Amp:                "Amp",
	End:                "End",
	OverwriteOut:       "OverwriteOut",
	AppendOut:          "AppendOut",
	OverwriteIn:        "OverwriteIn",
	OverwriteErr:       "OverwriteErr",
	AppendErr:          "AppendErr",
	OverwriteOutAndErr: "OverwriteOutAndErr",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// Sequencing reports whether op ends a command without connecting it to the
// next one.
func (op Operator) Sequencing() bool { return op == End || op == Amp }

// OperatorSpec describes one control operator.
type OperatorSpec struct {
	Op      Operator
	Literal string
	// Whether the operator is followed by an argument, like the file name
	// after ">".
	TakesArgument bool
	// Whether the operator configures the preceding command (redirections)
	// rather than separating commands.
	IsConfiguration bool
}

// DefaultSpecs are the operators of the default table.
var DefaultSpecs = []OperatorSpec{
	{Op: Pipe, Literal: "|"},
	{Op: PipeOutAndErr, Literal: "|&"},
	{Op: Or, Literal: "||"},
	{Op: And, Literal: "&&"},
	{Op: Amp, Literal: "&"},
	{Op: End, Literal: ";"},
	{Op: OverwriteOut, Literal: ">", TakesArgument: true, IsConfiguration: true},
	{Op: AppendOut, Literal: ">>", TakesArgument: true, IsConfiguration: true},
	{Op: OverwriteIn, Literal: "<", TakesArgument: true, IsConfiguration: true},
	{Op: OverwriteErr, Literal: "2>", TakesArgument: true, IsConfiguration: true},
	{Op: AppendErr, Literal: "2>>", TakesArgument: true, IsConfiguration: true},
	{Op: OverwriteOutAndErr, Literal: "2>&1", IsConfiguration: true},
}

// Table is an immutable set of operators. Literals are kept in a strict
// total order, longest first, so that the first literal matching at a
// position is the longest one.
type Table struct {
	specs []OperatorSpec
}

// NewTable builds a Table. It fails if a literal is empty or if two specs share
// a literal or an operator.
func NewTable(specs ...OperatorSpec) (*Table, error) {
	sorted := append([]OperatorSpec(nil), specs...)
	seenOp := make(map[Operator]bool)
	seenLiteral := make(map[string]bool)
	for _, spec := range sorted {
		switch {
		case spec.Literal == "":
			return nil, diag.Errorf(diag.GrammarDefinition, spec.Op.String(),
				"operator %v has an empty literal", spec.Op)
		case spec.Op == None:
			return nil, diag.Errorf(diag.GrammarDefinition, spec.Literal,
				"operator %q uses the reserved None operator", spec.Literal)
		case seenLiteral[spec.Literal]:
			return nil, diag.Errorf(diag.GrammarDefinition, spec.Literal,
				"duplicate operator literal %q", spec.Literal)
		case seenOp[spec.Op]:
			return nil, diag.Errorf(diag.GrammarDefinition, spec.Op.String(),
				"duplicate operator %v", spec.Op)
		}
		seenLiteral[spec.Literal] = true
		seenOp[spec.Op] = true
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Literal, sorted[j].Literal
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return &Table{sorted}, nil
}

var defaultTable *Table

func init() {
	t, err := NewTable(DefaultSpecs...)
	if err != nil {
		panic(err)
	}
	defaultTable = t
}

// DefaultTable returns the table built from DefaultSpecs.
func DefaultTable() *Table { return defaultTable }

// Specs returns the operators of the table, longest literal first.
func (t *Table) Specs() []OperatorSpec {
	return append([]OperatorSpec(nil), t.specs...)
}

// Lookup finds the spec of an operator.
func (t *Table) Lookup(op Operator) (OperatorSpec, bool) {
	for _, spec := range t.specs {
		if spec.Op == op {
			return spec, true
		}
	}
	return OperatorSpec{}, false
}

// Match is an operator found in a line.
type Match struct {
	OperatorSpec
	diag.Ranging
}

// matchAt returns the longest operator whose literal starts at line[i]. A
// literal starting with a digit only matches at the start of a word, so that
// the "2" in "file2>x" stays part of the word.
func (t *Table) matchAt(line string, i, wordStart int) (OperatorSpec, bool) {
	for _, spec := range t.specs {
		lit := spec.Literal
		if len(line)-i < len(lit) || line[i:i+len(lit)] != lit {
			continue
		}
		if isDigit(lit[0]) && i != wordStart {
			continue
		}
		return spec, true
	}
	return OperatorSpec{}, false
}

// Operators returns all operators found in line, outside quotes and not
// escaped. If the line ends inside a quote, the operators found so far are
// returned with a partial tokenize error.
func (t *Table) Operators(line string) ([]Match, error) {
	var (
		matches    []Match
		quote      byte
		quoteStart int
		// Start of the current word, or -1 if between words.
		wordStart = 0
	)
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			}
			i++
		case quote == '"':
			if c == '\\' {
				i = min(i+2, len(line))
				continue
			}
			if c == '"' {
				quote = 0
			}
			i++
		case isSpace(c):
			i++
			wordStart = i
		case c == '\\':
			i = min(i+2, len(line))
		case c == '\'' || c == '"':
			quote, quoteStart = c, i
			i++
		default:
			if spec, ok := t.matchAt(line, i, wordStart); ok {
				end := i + len(spec.Literal)
				matches = append(matches, Match{spec, diag.Ranging{From: i, To: end}})
				i = end
				wordStart = end
				continue
			}
			i++
		}
	}
	if quote != 0 {
		return matches, unterminated(quote, quoteStart, len(line))
	}
	return matches, nil
}

// Segment is the part of a line before an operator.
type Segment struct {
	// The operator ending the segment; None for the last segment.
	Op   Operator
	Text string
	// Position of Text in the line.
	diag.Ranging
}

// Split splits a line into operator-delimited segments. Each operator is
// attached to the segment preceding it. Whitespace-only segments between
// operators are dropped, unless nothing else would remain. Whitespace-only
// text after the last operator is dropped after a sequencing operator (";"
// and "&") and kept as an empty segment otherwise, since the line is still
// expecting a command or a redirection target.
//
// If the line ends inside a quote, the segments are returned together with a
// partial tokenize error; the last segment then contains the open quote.
func (t *Table) Split(line string) ([]Segment, error) {
	matches, err := t.Operators(line)
	if len(matches) == 0 {
		return []Segment{{Op: None, Text: line, Ranging: diag.Ranging{From: 0, To: len(line)}}}, err
	}

	var segs []Segment
	start := 0
	for _, m := range matches {
		text := line[start:m.From]
		if !isBlank(text) {
			segs = append(segs, Segment{m.Op, text, diag.Ranging{From: start, To: m.From}})
		}
		start = m.To
	}
	if len(segs) == 0 {
		first := matches[0]
		segs = append(segs, Segment{first.Op, line[:first.From], diag.Ranging{From: 0, To: first.From}})
	}

	tail := line[start:]
	last := matches[len(matches)-1]
	switch {
	case !isBlank(tail):
		segs = append(segs, Segment{None, tail, diag.Ranging{From: start, To: len(line)}})
	case !last.Op.Sequencing():
		segs = append(segs, Segment{None, "", diag.PointRanging(len(line))})
	}
	return segs, err
}

func unterminated(quote byte, from, to int) *diag.Error {
	return &diag.Error{
		Kind:    diag.TokenizeError,
		Message: fmt.Sprintf("unterminated %s quote", quoteName(quote)),
		Ranging: diag.Ranging{From: from, To: to},
		Partial: true,
	}
}

func quoteName(q byte) string {
	if q == '\'' {
		return "single"
	}
	return "double"
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}
