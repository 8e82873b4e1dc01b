package grammar

import (
	"github.com/spf13/afero"

	"src.gsh.sh/pkg/fsutil"
)

// Target is what parsed values are bound into. Grammars only reference it;
// command instances are built elsewhere and may be reused across
// invocations.
type Target interface {
	Fields() Fields
}

// Fields maps the field names of OptionSpec and ArgumentSpec to fields.
type Fields map[string]Field

// Field is a settable slot of a Target.
type Field interface {
	// Kind returns the semantic type the field stores.
	Kind() Kind
	// Set stores a value. List fields receive []any and map fields receive
	// map[string]any.
	Set(v any) error
	// Reset restores the zero value.
	Reset()
}

// ParseContext gives activators and completers access to what has been
// parsed so far.
type ParseContext interface {
	// Values returns the raw values given to the option with the given long
	// name (or short name, for options with no long name).
	Values(option string) []string
	// Has reports whether the option has been given.
	Has(option string) bool
	// Arguments returns the positional values given so far.
	Arguments() []string
}

// NoContext is a ParseContext in which nothing has been parsed. It is used to
// evaluate command activators.
var NoContext ParseContext = noContext{}

type noContext struct{}

func (noContext) Values(string) []string { return nil }
func (noContext) Has(string) bool        { return false }
func (noContext) Arguments() []string    { return nil }

// ResultHandler is notified of the outcome of running a command.
type ResultHandler interface {
	Success()
	Failure(err error)
	ValidationFailure(err error)
}

// Completer produces completion candidates for an option value or an
// argument.
type Completer interface {
	Complete(inv *CompleterInvocation) Completions
}

// CompleterFunc adapts a function to a Completer.
type CompleterFunc func(*CompleterInvocation) Completions

// Complete calls f.
func (f CompleterFunc) Complete(inv *CompleterInvocation) Completions { return f(inv) }

// CompleterInvocation is the input of a Completer.
type CompleterInvocation struct {
	// The value typed so far, unquoted.
	Seed string
	// Option whose value is completed; nil when completing an argument.
	Option *OptionSpec
	// Argument being completed; nil when completing an option value.
	Argument *ArgumentSpec
	Context  ParseContext
	// Working and home directories, and the filesystem they are on.
	Dirs fsutil.Dirs
	Fs   afero.Fs
}

// Completions is the output of a Completer.
type Completions struct {
	Candidates []Candidate
	// The candidates are appended after the seed instead of replacing it.
	IgnoreOffset bool
	// The candidates are not filtered against the seed.
	IgnoreStartsWith bool
	// No separator is appended, even after a unique candidate.
	NoAppendSeparator bool
}

// Candidate is a completion candidate.
type Candidate struct {
	// Text inserted into the buffer, unquoted.
	Value string
	// Text shown in listings. Defaults to Value.
	Display string
	// The candidate is not a whole word, like a directory name ending in a
	// separator, so completing it does not end the word.
	Partial bool
}

// Values builds Completions from plain strings.
func Values(values ...string) Completions {
	cands := make([]Candidate, len(values))
	for i, v := range values {
		cands[i] = Candidate{Value: v}
	}
	return Completions{Candidates: cands}
}
