package gramfile

import (
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"src.gsh.sh/pkg/bind"
	"src.gsh.sh/pkg/complete"
	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/grammar"
)

// Set holds the commands built from grammar files.
type Set struct {
	commands []*grammar.Model
	outputs  map[*grammar.Model]*template.Template
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{outputs: make(map[*grammar.Model]*template.Template)}
}

// Commands returns the top-level commands, in the order they were declared.
func (s *Set) Commands() []*grammar.Model { return slices.Clone(s.commands) }

// Has reports whether m was built by s.
func (s *Set) Has(m *grammar.Model) bool {
	_, ok := s.outputs[m]
	return ok
}

// Add builds the commands of f. Nothing is added if any command fails to
// build.
func (s *Set) Add(f *File) error {
	var nodes []*node
	var models []*grammar.Model
	for i := range f.Commands {
		n, err := newNode(&f.Commands[i])
		if err != nil {
			return err
		}
		m, err := n.build()
		if err != nil {
			return err
		}
		nodes, models = append(nodes, n), append(models, m)
	}
	for i, n := range nodes {
		s.register(n, models[i])
	}
	s.commands = append(s.commands, models...)
	return nil
}

func (s *Set) register(n *node, m *grammar.Model) {
	s.outputs[m] = n.output
	for i, child := range m.Children() {
		s.register(n.children[i], child)
	}
}

// Data returns the values a command renders its output with: the values
// bound into the records of m and its ancestors, the inner ones taking
// precedence, and "command", the path of m.
func Data(m *grammar.Model) map[string]any {
	data := make(map[string]any)
	var chain []*grammar.Model
	for c := m; c != nil; c = c.Parent() {
		chain = append(chain, c)
	}
	for _, c := range slices.Backward(chain) {
		if r, ok := c.Target().(*bind.Record); ok {
			maps.Copy(data, r.Values())
		}
	}
	data["command"] = m.Path()
	return data
}

// Run renders the output of m, which must have been built by s, to w.
func (s *Set) Run(w io.Writer, m *grammar.Model) error {
	t, ok := s.outputs[m]
	if !ok {
		return fmt.Errorf("%s is not declared in a grammar file", m.Path())
	}
	if t == nil {
		return nil
	}
	return t.Execute(w, Data(m))
}

var funcs = template.FuncMap{
	"join":  join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// Joins the elements of a list value.
func join(sep string, v any) string {
	return strings.Join(stringsOf(v), sep)
}

func stringsOf(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		ss := make([]string, len(v))
		for i, e := range v {
			ss[i] = fmt.Sprint(e)
		}
		return ss
	case map[string]any:
		var ss []string
		for _, k := range slices.Sorted(maps.Keys(v)) {
			ss = append(ss, k+"="+fmt.Sprint(v[k]))
		}
		return ss
	default:
		return []string{fmt.Sprint(v)}
	}
}

// A command being built, with its output template and children.
type node struct {
	def      grammar.Def
	output   *template.Template
	children []*node
}

func newNode(c *Command) (*node, error) {
	n := &node{def: grammar.Def{
		Name:         c.Name,
		Aliases:      c.Aliases,
		Description:  c.Description,
		GenerateHelp: !c.NoHelp,
	}}
	if env := c.RequiresEnv; env != "" {
		n.def.Activator = func(grammar.ParseContext) bool {
			_, ok := os.LookupEnv(env)
			return ok
		}
	}
	for i := range c.Options {
		o, err := option(&c.Options[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		n.def.Options = append(n.def.Options, o)
	}
	for _, o := range c.Options {
		if o.Requires != "" && !declares(c.Options, o.Requires) {
			return nil, diag.Errorf(diag.GrammarDefinition, o.Requires,
				"%s: option %s requires unknown option %s", c.Name, o.Name, o.Requires)
		}
	}
	if a := c.Arguments; a != nil {
		spec, err := argument(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		if a.Multiple {
			n.def.Arguments = spec
		} else {
			n.def.Argument = spec
		}
	}
	if c.Output != "" {
		t, err := template.New(c.Name).Funcs(funcs).Parse(c.Output)
		if err != nil {
			return nil, diag.Wrap(diag.GrammarDefinition, c.Name, err)
		}
		n.output = t
	}
	for i := range c.Children {
		child, err := newNode(&c.Children[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func declares(options []Option, name string) bool {
	return slices.ContainsFunc(options, func(o Option) bool {
		return o.Name == name || (o.Name == "" && o.Short == name)
	})
}

// Builds the model. Records are shaped after a first build of the grammar,
// which also validates it.
func (n *node) build() (*grammar.Model, error) {
	probe, err := grammar.New(n.assemble())
	if err != nil {
		return nil, err
	}
	n.attach(probe)
	return grammar.New(n.assemble())
}

func (n *node) assemble() grammar.Def {
	def := n.def
	def.Children = nil
	for _, child := range n.children {
		def.Children = append(def.Children, child.assemble())
	}
	return def
}

func (n *node) attach(m *grammar.Model) {
	n.def.Target = bind.NewRecord(m)
	for i, child := range m.Children() {
		n.children[i].attach(child)
	}
}

var kinds = []grammar.Kind{
	grammar.String, grammar.Int, grammar.Int64, grammar.Uint, grammar.Float,
	grammar.Bool, grammar.Rune, grammar.Duration, grammar.Path,
}

func kind(t string) (grammar.Kind, error) {
	k := grammar.Kind(t)
	if t != "" && !slices.Contains(kinds, k) {
		return "", diag.Errorf(diag.GrammarDefinition, t, "unknown type %s", t)
	}
	return k, nil
}

func singleRune(what, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, diag.Errorf(diag.GrammarDefinition, s, "%s must be one character, got %q", what, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func option(o *Option) (grammar.OptionSpec, error) {
	spec := grammar.OptionSpec{
		Name:        o.Name,
		Description: o.Description,
		ValueName:   o.ValueName,
		Required:    o.Required,
		HasValue:    o.Value,
		Defaults:    o.Default,
	}
	var err error
	if spec.Short, err = singleRune("short", o.Short); err != nil {
		return spec, err
	}
	if spec.ValueSeparator, err = singleRune("separator", o.Separator); err != nil {
		return spec, err
	}
	if spec.Kind, err = kind(o.Type); err != nil {
		return spec, err
	}
	switch o.Multiple {
	case "":
	case "list":
		spec.Multiplicity = grammar.List
	case "group":
		spec.Multiplicity = grammar.GroupMap
	default:
		return spec, diag.Errorf(diag.GrammarDefinition, o.Multiple,
			"multiple must be list or group, got %q", o.Multiple)
	}
	if spec.Validator, err = matcher(o.Match); err != nil {
		return spec, err
	}
	if spec.Completer, err = completer(o.Completion); err != nil {
		return spec, err
	}
	if req := o.Requires; req != "" {
		spec.Activator = func(ctx grammar.ParseContext) bool { return ctx.Has(req) }
	}
	if p := o.Prompt; p != nil {
		spec.Selector = &grammar.Selector{Prompt: p.Text, Choices: p.Choices, Secret: p.Secret}
	}
	return spec, nil
}

func argument(a *Argument) (*grammar.ArgumentSpec, error) {
	spec := &grammar.ArgumentSpec{
		Description: a.Description,
		ValueName:   a.ValueName,
		Required:    a.Required,
		Defaults:    a.Default,
	}
	var err error
	if spec.Kind, err = kind(a.Type); err != nil {
		return nil, err
	}
	if spec.Validator, err = matcher(a.Match); err != nil {
		return nil, err
	}
	if spec.Completer, err = completer(a.Completion); err != nil {
		return nil, err
	}
	return spec, nil
}

func matcher(expr string) (grammar.OptionValidator, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, diag.Wrap(diag.GrammarDefinition, expr, err)
	}
	return func(v any) error {
		for _, s := range stringsOf(v) {
			if !re.MatchString(s) {
				return fmt.Errorf("%q does not match %s", s, expr)
			}
		}
		return nil
	}, nil
}

func completer(c Completion) (grammar.Completer, error) {
	switch c.Completer {
	case "":
		if len(c.Values) > 0 {
			return values(c.Values), nil
		}
		return nil, nil
	case "path":
		if c.Pattern != "" && !doublestar.ValidatePattern(c.Pattern) {
			return nil, diag.Errorf(diag.GrammarDefinition, c.Pattern, "bad pattern %q", c.Pattern)
		}
		return complete.Path{Pattern: c.Pattern}, nil
	case "dirs":
		return complete.Path{DirsOnly: true}, nil
	case "values":
		return values(c.Values), nil
	case "bool":
		return values{"true", "false"}, nil
	default:
		return nil, diag.Errorf(diag.GrammarDefinition, c.Completer, "unknown completer %q", c.Completer)
	}
}

// A completer of fixed candidates.
type values []string

func (v values) Complete(*grammar.CompleterInvocation) grammar.Completions {
	return grammar.Values(v...)
}
