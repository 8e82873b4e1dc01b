package parse

import (
	"errors"

	"src.gsh.sh/pkg/grammar"
)

// Result is the outcome of matching tokens against a grammar.
type Result struct {
	// The command that was matched. For group commands this is the deepest
	// sub-command selected.
	Model *grammar.Model
	// The result for the parent command, when Model is a sub-command.
	Parent *Result
	// Parse errors. Parsing stops at the first one, except when parsing for
	// completion.
	Errors []error
	// Missing required options and arguments. Only computed when
	// requirements are not ignored.
	Deferred []error
	// Whether the result was parsed with requirements ignored.
	IgnoredRequirements bool

	values map[*grammar.OptionSpec][]string
	groups map[*grammar.OptionSpec]map[string]string
	order  []*grammar.OptionSpec
	args   []string
}

var _ grammar.ParseContext = (*Result)(nil)

func newResult(m *grammar.Model, parent *Result) *Result {
	return &Result{
		Model:  m,
		Parent: parent,
		values: make(map[*grammar.OptionSpec][]string),
		groups: make(map[*grammar.OptionSpec]map[string]string),
	}
}

// Err returns the parse errors followed by the deferred errors, joined. It
// returns nil for a successful parse.
func (r *Result) Err() error {
	return errors.Join(append(append([]error(nil), r.Errors...), r.Deferred...)...)
}

// Chain returns the results from the top-level command down to r.
func (r *Result) Chain() []*Result {
	if r.Parent == nil {
		return []*Result{r}
	}
	return append(r.Parent.Chain(), r)
}

// Given reports whether the option was given.
func (r *Result) Given(o *grammar.OptionSpec) bool {
	_, ok := r.values[o]
	return ok
}

// GivenOptions returns the options given, in the order they first appeared.
func (r *Result) GivenOptions() []*grammar.OptionSpec {
	return append([]*grammar.OptionSpec(nil), r.order...)
}

// OptionValues returns the raw values of an option. Flags have the value
// "true" unless given as --flag=value.
func (r *Result) OptionValues(o *grammar.OptionSpec) []string {
	return append([]string(nil), r.values[o]...)
}

// Group returns the key/value pairs of a GroupMap option.
func (r *Result) Group(o *grammar.OptionSpec) map[string]string {
	return r.groups[o]
}

// Overridden reports whether an option that overrides requirements, like
// --help, was given to the command or one of its ancestors.
func (r *Result) Overridden() bool {
	for _, c := range r.Chain() {
		for _, o := range c.order {
			if o.OverrideRequired {
				return true
			}
		}
	}
	return false
}

func (r *Result) lookup(name string) *grammar.OptionSpec {
	if o := r.Model.Long(name); o != nil {
		return o
	}
	if runes := []rune(name); len(runes) == 1 {
		return r.Model.Short(runes[0])
	}
	return nil
}

// Values implements grammar.ParseContext.
func (r *Result) Values(name string) []string {
	if o := r.lookup(name); o != nil {
		return r.OptionValues(o)
	}
	return nil
}

// Has implements grammar.ParseContext.
func (r *Result) Has(name string) bool {
	o := r.lookup(name)
	return o != nil && r.Given(o)
}

// Arguments implements grammar.ParseContext.
func (r *Result) Arguments() []string {
	return append([]string(nil), r.args...)
}
