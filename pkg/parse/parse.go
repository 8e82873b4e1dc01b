// Package parse matches the tokens of a command line against a grammar.
//
// Long options are written --name, --name=value or --name value, and may be
// abbreviated to any unique prefix. Short options are written -s, and
// options that take no value may be chained as in -abc; the first option in a
// chain that takes a value consumes the rest of the chain (-ovalue, -o=value)
// or the next token. GroupMap options are written -Dkey=value,
// --namekey=value or --name key=value. A "--" token ends option parsing.
package parse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/token"
)

// Config configures parsing.
type Config struct {
	// Do not compute missing required options and arguments.
	IgnoreRequirements bool
}

// Parse matches tokens, which follow the command name, against m. Errors are
// reported in the returned Result and never cause a nil Result.
func Parse(m *grammar.Model, tokens []token.Token, cfg Config) *Result {
	p := &parser{res: newResult(m, nil), tokens: tokens}
	p.run()
	res := p.res
	for _, r := range res.Chain() {
		r.IgnoredRequirements = cfg.IgnoreRequirements
	}
	if !cfg.IgnoreRequirements && len(res.Errors) == 0 && !res.Overridden() {
		res.Deferred = missing(res)
	}
	return res
}

type parser struct {
	res    *Result
	tokens []token.Token
	i      int
	// Set after "--".
	noMoreOptions bool
	// Parsing all but the last token of a line being completed.
	completing bool
	// Option whose value is the token being completed.
	pending *grammar.OptionSpec
	failed  bool
}

func (p *parser) run() {
	for p.i < len(p.tokens) {
		tok := p.tokens[p.i]
		p.i++
		v := tok.Value
		var err error
		switch {
		case p.noMoreOptions:
			err = p.positional(tok)
		case v == "--":
			p.noMoreOptions = true
		case strings.HasPrefix(v, "--"):
			err = p.long(tok)
		case len(v) > 1 && v[0] == '-':
			err = p.short(tok)
		default:
			err = p.positional(tok)
		}
		if err != nil {
			p.res.Errors = append(p.res.Errors, err)
			if !p.completing || !recoverable(err) {
				p.failed = true
				return
			}
		}
	}
}

// Errors that completion can skip over.
func recoverable(err error) bool {
	switch diag.KindOf(err) {
	case diag.UnknownOption, diag.AmbiguousOption, diag.UnexpectedArgument:
		return true
	}
	return false
}

// Returns the value of an option from the next token. When the option is the
// last token of a line being completed, it is recorded as pending instead.
func (p *parser) nextValue(o *grammar.OptionSpec, tok token.Token) (string, bool, error) {
	if p.i < len(p.tokens) {
		next := p.tokens[p.i]
		p.i++
		return next.Value, true, nil
	}
	if p.completing {
		p.pending = o
		return "", false, nil
	}
	return "", false, diag.Errorf(diag.MissingValue, o.Display(),
		"%s requires a value", o.Display()).WithRange(tok)
}

func (p *parser) long(tok token.Token) error {
	m, res := p.res.Model, p.res
	body := tok.Value[2:]
	name, value, hasValue := strings.Cut(body, "=")
	matches := m.LongPrefix(name, res)
	switch len(matches) {
	case 0:
		if o, kv := m.GroupPrefix(body, true, res); o != nil && kv != "" {
			return res.add(o, kv, tok)
		}
		return unknownOption("--"+name, longNames(m, res), tok)
	case 1:
	default:
		var names []string
		for _, o := range matches {
			names = append(names, "--"+o.Name)
		}
		return &diag.Error{
			Kind: diag.AmbiguousOption, Name: "--" + name,
			Message:     fmt.Sprintf("--%s matches more than one option", name),
			Ranging:     tok.Range(),
			Suggestions: names,
		}
	}
	o := matches[0]
	switch {
	case hasValue:
		return res.add(o, value, tok)
	case o.HasValue:
		v, ok, err := p.nextValue(o, tok)
		if !ok {
			return err
		}
		return res.add(o, v, tok)
	default:
		return res.add(o, "true", tok)
	}
}

func (p *parser) short(tok token.Token) error {
	m, res := p.res.Model, p.res
	body := tok.Value[1:]
	if o, kv := m.GroupPrefix(body, false, res); o != nil {
		if kv == "" {
			v, ok, err := p.nextValue(o, tok)
			if !ok {
				return err
			}
			kv = v
		}
		return res.add(o, kv, tok)
	}
	for i, r := range body {
		o := m.Short(r)
		if o == nil || !o.IsActive(res) {
			return unknownOption("-"+string(r), shortNames(m, res), tok)
		}
		if !o.HasValue {
			if err := res.add(o, "true", tok); err != nil {
				return err
			}
			continue
		}
		if rest := body[i+utf8.RuneLen(r):]; rest != "" {
			return res.add(o, strings.TrimPrefix(rest, "="), tok)
		}
		v, ok, err := p.nextValue(o, tok)
		if !ok {
			return err
		}
		return res.add(o, v, tok)
	}
	return nil
}

func (p *parser) positional(tok token.Token) error {
	m, res := p.res.Model, p.res
	if p.expectsChild() {
		child := m.Child(tok.Value)
		switch {
		case child != nil && !child.IsActive(res):
			return diag.Errorf(diag.Activation, child.Path(), diag.NotActivated).WithRange(tok)
		case child != nil:
			p.res = newResult(child, res)
			p.noMoreOptions = false
			return nil
		case m.Argument() == nil:
			return &diag.Error{
				Kind: diag.ChildNotFound, Name: tok.Value,
				Message:     fmt.Sprintf("%s has no sub-command %s", m.Path(), tok.Value),
				Ranging:     tok.Range(),
				Suggestions: diag.Suggest(tok.Value, childNames(m, res)),
			}
		}
	}
	a := m.Argument()
	if a == nil || (!a.Multiple && len(res.args) > 0) {
		return diag.Errorf(diag.UnexpectedArgument, tok.Value,
			"unexpected argument %s", tok.Value).WithRange(tok)
	}
	res.args = append(res.args, tok.Value)
	return nil
}

// Whether the next positional token may name a sub-command. A group that
// also takes arguments binds words matching no child as arguments, and stops
// looking for children after its first argument.
func (p *parser) expectsChild() bool {
	return p.res.Model.IsGroup() && len(p.res.args) == 0
}

func (r *Result) add(o *grammar.OptionSpec, value string, tok token.Token) error {
	if o.Multiplicity == grammar.GroupMap {
		k, v, _ := strings.Cut(value, "=")
		if k == "" {
			return diag.Errorf(diag.MissingValue, o.Display(),
				"%s requires key=value", o.Display()).WithRange(tok)
		}
		if r.groups[o] == nil {
			r.groups[o] = make(map[string]string)
		}
		r.groups[o][k] = v
	}
	if !r.Given(o) {
		r.order = append(r.order, o)
	}
	switch o.Multiplicity {
	case grammar.Single:
		r.values[o] = []string{value}
	case grammar.List:
		r.values[o] = append(r.values[o], strings.Split(value, string(o.Separator()))...)
	default:
		r.values[o] = append(r.values[o], value)
	}
	return nil
}

func missing(res *Result) []error {
	var errs []error
	for _, r := range res.Chain() {
		for _, o := range r.Model.Options() {
			if o.Required && !r.Given(o) && len(o.Defaults) == 0 && o.Selector == nil && o.IsActive(r) {
				errs = append(errs, diag.Errorf(diag.RequiredMissing, o.Display(),
					"%s: option %s is required", r.Model.Path(), o.Display()))
			}
		}
		if r != res {
			// A chosen sub-command stands in for the arguments of its parent.
			continue
		}
		if a := r.Model.Argument(); a != nil && a.Required && len(r.args) == 0 && len(a.Defaults) == 0 {
			name := "<" + a.ValueName + ">"
			if a.ValueName == "" {
				name = "<arg>"
			}
			errs = append(errs, diag.Errorf(diag.RequiredMissing, name,
				"%s: argument %s is required", r.Model.Path(), name))
		}
	}
	return errs
}

func unknownOption(name string, candidates []string, tok token.Token) error {
	return &diag.Error{
		Kind: diag.UnknownOption, Name: name,
		Message:     "unknown option " + name,
		Ranging:     tok.Range(),
		Suggestions: diag.Suggest(name, candidates),
	}
}

func longNames(m *grammar.Model, ctx grammar.ParseContext) []string {
	var names []string
	for _, o := range m.Options() {
		if o.Name != "" && o.IsActive(ctx) {
			names = append(names, "--"+o.Name)
		}
	}
	return names
}

func shortNames(m *grammar.Model, ctx grammar.ParseContext) []string {
	var names []string
	for _, o := range m.Options() {
		if o.Short != 0 && o.IsActive(ctx) {
			names = append(names, "-"+string(o.Short))
		}
	}
	return names
}

func childNames(m *grammar.Model, ctx grammar.ParseContext) []string {
	var names []string
	for _, c := range m.Children() {
		if c.IsActive(ctx) {
			names = append(names, c.Names()...)
		}
	}
	return names
}
