package grammar

import (
	"strings"
	"unicode"

	"src.gsh.sh/pkg/diag"
)

// Def is the declaration of a command, from which New builds a Model.
type Def struct {
	Name        string
	Aliases     []string
	Description string
	Options     []OptionSpec
	// A single positional argument. At most one of Argument and Arguments
	// may be set.
	Argument *ArgumentSpec
	// Any number of positional arguments.
	Arguments     *ArgumentSpec
	Validator     CommandValidator
	ResultHandler ResultHandler
	Activator     Activator
	Children      []Def
	// Whether to add a -h/--help option.
	GenerateHelp bool
	// The instance parsed values are bound into.
	Target Target
}

// Model is the immutable grammar of a command.
type Model struct {
	name        string
	aliases     []string
	description string
	options     []*OptionSpec
	argument    *ArgumentSpec
	validator   CommandValidator
	handler     ResultHandler
	activator   Activator
	children    []*Model
	parent      *Model
	target      Target
}

// HelpOption is the option added by Def.GenerateHelp.
var HelpOption = OptionSpec{
	Name:             "help",
	Short:            'h',
	Description:      "Display this help and exit",
	Kind:             Bool,
	OverrideRequired: true,
}

// New builds a Model. It returns a GrammarDefinition error if the name is
// empty, if option names or short names are malformed or not unique, if both
// Argument and Arguments are set, or if children share names or aliases.
func New(def Def) (*Model, error) {
	return build(def, nil)
}

func build(def Def, parent *Model) (*Model, error) {
	if err := checkCommandName(def.Name); err != nil {
		return nil, err
	}
	m := &Model{
		name:        def.Name,
		aliases:     append([]string(nil), def.Aliases...),
		description: def.Description,
		validator:   def.Validator,
		handler:     def.ResultHandler,
		activator:   def.Activator,
		parent:      parent,
		target:      def.Target,
	}
	for _, alias := range def.Aliases {
		if err := checkCommandName(alias); err != nil {
			return nil, err
		}
	}

	options := def.Options
	if def.GenerateHelp && !hasLong(options, HelpOption.Name) {
		help := HelpOption
		if hasShort(options, help.Short) {
			help.Short = 0
		}
		options = append(append([]OptionSpec(nil), options...), help)
	}
	names := make(map[string]bool)
	shorts := make(map[rune]bool)
	for i := range options {
		o := options[i]
		if err := checkOption(&o); err != nil {
			return nil, err
		}
		if o.Name != "" {
			if names[o.Name] {
				return nil, diag.Errorf(diag.GrammarDefinition, o.Name,
					"%s: duplicate option --%s", def.Name, o.Name)
			}
			names[o.Name] = true
		}
		if o.Short != 0 {
			if shorts[o.Short] {
				return nil, diag.Errorf(diag.GrammarDefinition, string(o.Short),
					"%s: duplicate option -%c", def.Name, o.Short)
			}
			shorts[o.Short] = true
		}
		m.options = append(m.options, &o)
	}

	switch {
	case def.Argument != nil && def.Arguments != nil:
		return nil, diag.Errorf(diag.GrammarDefinition, def.Name,
			"%s: both a single argument and multiple arguments are declared", def.Name)
	case def.Argument != nil:
		a := *def.Argument
		a.Multiple = false
		m.argument = &a
	case def.Arguments != nil:
		a := *def.Arguments
		a.Multiple = true
		m.argument = &a
	}
	if a := m.argument; a != nil {
		if a.Field == "" {
			a.Field = "args"
		}
		if a.Kind == "" {
			a.Kind = String
		}
	}

	seen := make(map[string]bool)
	for _, childDef := range def.Children {
		child, err := build(childDef, m)
		if err != nil {
			return nil, err
		}
		for _, name := range child.Names() {
			if seen[name] {
				return nil, diag.Errorf(diag.GrammarDefinition, name,
					"%s: more than one child is named %s", def.Name, name)
			}
			seen[name] = true
		}
		m.children = append(m.children, child)
	}
	return m, nil
}

func checkCommandName(name string) error {
	if name == "" {
		return diag.Errorf(diag.GrammarDefinition, "", "command name is empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 || strings.HasPrefix(name, "-") {
		return diag.Errorf(diag.GrammarDefinition, name, "invalid command name %q", name)
	}
	return nil
}

// Validates o and fills in defaults.
func checkOption(o *OptionSpec) error {
	if o.Name == "" && o.Short == 0 {
		return diag.Errorf(diag.GrammarDefinition, "", "option has neither a name nor a short name")
	}
	if o.Name != "" && (strings.HasPrefix(o.Name, "-") || strings.ContainsAny(o.Name, "= \t")) {
		return diag.Errorf(diag.GrammarDefinition, o.Name, "invalid option name %q", o.Name)
	}
	if o.Short != 0 && (o.Short == '-' || o.Short == '=' || !unicode.IsPrint(o.Short) || unicode.IsSpace(o.Short)) {
		return diag.Errorf(diag.GrammarDefinition, string(o.Short), "invalid short option %q", o.Short)
	}
	if o.Multiplicity != Single {
		o.HasValue = true
	}
	if o.Kind == "" {
		if o.HasValue {
			o.Kind = String
		} else {
			o.Kind = Bool
		}
	}
	if o.Field == "" {
		o.Field = o.Name
		if o.Field == "" {
			o.Field = string(o.Short)
		}
	}
	if o.ValueName == "" {
		o.ValueName = o.Name
		if o.ValueName == "" {
			o.ValueName = "value"
		}
	}
	return nil
}

func hasLong(options []OptionSpec, name string) bool {
	for _, o := range options {
		if o.Name == name {
			return true
		}
	}
	return false
}

func hasShort(options []OptionSpec, short rune) bool {
	for _, o := range options {
		if o.Short == short {
			return true
		}
	}
	return false
}

// Name returns the name of the command.
func (m *Model) Name() string { return m.name }

// Aliases returns the aliases the command is declared with.
func (m *Model) Aliases() []string { return append([]string(nil), m.aliases...) }

// Names returns the name followed by the aliases.
func (m *Model) Names() []string { return append([]string{m.name}, m.aliases...) }

// Description returns the description of the command.
func (m *Model) Description() string { return m.description }

// Options returns the options of the command.
func (m *Model) Options() []*OptionSpec { return append([]*OptionSpec(nil), m.options...) }

// Argument returns the argument spec, or nil if the command takes no
// positional values.
func (m *Model) Argument() *ArgumentSpec { return m.argument }

// Validator returns the command validator, which may be nil.
func (m *Model) Validator() CommandValidator { return m.validator }

// ResultHandler returns the result handler, which may be nil.
func (m *Model) ResultHandler() ResultHandler { return m.handler }

// Target returns the instance the command binds into, which may be nil.
func (m *Model) Target() Target { return m.target }

// Children returns the sub-commands.
func (m *Model) Children() []*Model { return append([]*Model(nil), m.children...) }

// IsGroup reports whether the command has sub-commands.
func (m *Model) IsGroup() bool { return len(m.children) > 0 }

// Parent returns the command m is a sub-command of, or nil.
func (m *Model) Parent() *Model { return m.parent }

// Path returns the names of the command and its ancestors, joined by spaces.
func (m *Model) Path() string {
	if m.parent == nil {
		return m.name
	}
	return m.parent.Path() + " " + m.name
}

// IsActive reports whether the command is usable in ctx.
func (m *Model) IsActive(ctx ParseContext) bool {
	return m.activator == nil || m.activator(ctx)
}

// Child finds a sub-command by name or alias.
func (m *Model) Child(name string) *Model {
	for _, c := range m.children {
		for _, n := range c.Names() {
			if n == name {
				return c
			}
		}
	}
	return nil
}

// Long finds an option by long name.
func (m *Model) Long(name string) *OptionSpec {
	for _, o := range m.options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Short finds an option by short name.
func (m *Model) Short(r rune) *OptionSpec {
	for _, o := range m.options {
		if o.Short == r {
			return o
		}
	}
	return nil
}

// LongPrefix returns the options active in ctx whose long name starts with
// prefix. An option whose name equals prefix is returned alone.
func (m *Model) LongPrefix(prefix string, ctx ParseContext) []*OptionSpec {
	var matches []*OptionSpec
	for _, o := range m.options {
		if o.Name == "" || !o.IsActive(ctx) || !strings.HasPrefix(o.Name, prefix) {
			continue
		}
		if o.Name == prefix {
			return []*OptionSpec{o}
		}
		matches = append(matches, o)
	}
	return matches
}

// GroupPrefix finds the GroupMap option whose short name starts the token
// body (as in "Dkey=value"), or whose long name is a prefix of it (as in
// "propkey=value"). It returns the option and the rest of the body.
func (m *Model) GroupPrefix(body string, long bool, ctx ParseContext) (*OptionSpec, string) {
	var best *OptionSpec
	for _, o := range m.options {
		if o.Multiplicity != GroupMap || !o.IsActive(ctx) {
			continue
		}
		if long {
			if o.Name != "" && strings.HasPrefix(body, o.Name) &&
				(best == nil || len(o.Name) > len(best.Name)) {
				best = o
			}
		} else if o.Short != 0 && strings.HasPrefix(body, string(o.Short)) {
			return o, body[len(string(o.Short)):]
		}
	}
	if best == nil {
		return nil, ""
	}
	return best, body[len(best.Name):]
}
