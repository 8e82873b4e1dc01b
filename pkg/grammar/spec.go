// Package grammar describes the shape of commands: their options, arguments
// and sub-commands, and the hooks used to convert, validate, activate and
// complete them. A Model is built once from a Def and is immutable
// afterwards.
package grammar

import "fmt"

// Kind names the semantic type of a value. Converters and completers are
// looked up by Kind.
type Kind string

// Built-in kinds.
const (
	String   Kind = "string"
	Int      Kind = "int"
	Int64    Kind = "int64"
	Uint     Kind = "uint"
	Float    Kind = "float"
	Bool     Kind = "bool"
	Rune     Kind = "rune"
	Duration Kind = "duration"
	Path     Kind = "path"
)

// Multiplicity says how many values an option accumulates.
type Multiplicity uint8

// Possible values of Multiplicity.
const (
	// At most one value; a later occurrence overrides an earlier one.
	Single Multiplicity = iota
	// Any number of values, which may also be given separated by the
	// option's ValueSeparator.
	List
	// key=value pairs accumulated into a map, as in -Dk=v.
	GroupMap
)

func (m Multiplicity) String() string {
	switch m {
	case Single:
		return "single"
	case List:
		return "list"
	case GroupMap:
		return "group"
	default:
		return fmt.Sprintf("Multiplicity(%d)", m)
	}
}

// Converter turns a raw string into a typed value.
type Converter func(string) (any, error)

// OptionValidator checks a converted option or argument value.
type OptionValidator func(any) error

// CommandValidator checks the target after all fields have been bound.
type CommandValidator func(Target) error

// Activator reports whether a command or option is usable, given what has
// been parsed so far.
type Activator func(ParseContext) bool

// OptionSpec describes an option.
type OptionSpec struct {
	// Long name, used as --name.
	Name string
	// Short name, used as -s. Zero if the option has none.
	Short       rune
	Description string
	// Placeholder shown in help, like <file>. Defaults to the name.
	ValueName string
	Required  bool
	// Whether the option takes a value. Options with List or GroupMap
	// multiplicity always do.
	HasValue     bool
	Multiplicity Multiplicity
	// Separator for List values given in one token; ',' when zero.
	ValueSeparator rune
	Defaults       []string
	// Semantic type used to find a converter when Converter is nil.
	// Defaults to Bool for options without a value and String otherwise.
	Kind      Kind
	Converter Converter
	Completer Completer
	Validator OptionValidator
	Activator Activator
	// Asks the user for a value when the option is not given.
	Selector *Selector
	// When given, requirements of the command are not enforced. Used by
	// --help.
	OverrideRequired bool
	// Name of the target field the option binds to. Defaults to Name.
	Field string
}

// Separator returns the separator of List values.
func (o *OptionSpec) Separator() rune {
	if o.ValueSeparator == 0 {
		return ','
	}
	return o.ValueSeparator
}

// Display returns how the option is written on the command line, preferring
// the long form.
func (o *OptionSpec) Display() string {
	if o.Name != "" {
		return "--" + o.Name
	}
	return "-" + string(o.Short)
}

// IsActive reports whether the option is visible in ctx.
func (o *OptionSpec) IsActive(ctx ParseContext) bool {
	return o.Activator == nil || o.Activator(ctx)
}

// ArgumentSpec describes the positional arguments of a command.
type ArgumentSpec struct {
	Description string
	ValueName   string
	Required    bool
	// Whether any number of positional values is accepted.
	Multiple  bool
	Defaults  []string
	Kind      Kind
	Converter Converter
	Completer Completer
	Validator OptionValidator
	// Name of the target field. Defaults to "args".
	Field string
}

// Selector describes an interactive prompt that fills an option.
type Selector struct {
	Prompt string
	// When non-empty, the answer must be one of these.
	Choices []string
	// Whether the answer should not be echoed.
	Secret bool
}
