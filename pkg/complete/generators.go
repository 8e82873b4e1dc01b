package complete

import (
	"slices"

	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/parse"
)

// Generates candidates for the token after a command name.
type generator struct {
	c   *completion
	res *parse.Result
	ctx parse.Context
}

func (g generator) generate() {
	c, m := g.c, g.ctx.Model
	switch g.ctx.Type {
	case parse.Child:
		c.name = "child"
		for _, child := range m.Children() {
			if child.IsActive(g.res) {
				c.items = append(c.items, Item{Value: child.Name(), Description: child.Description()})
			}
		}
		if m.Argument() != nil {
			// A group taking arguments offers them next to its children.
			g.argument()
			c.name = "child"
		}
		if g.ctx.Token.Raw == "" {
			// Keep the text from the command name on, so that the candidate
			// shows the whitespace as typed.
			c.leadFrom = c.segStart + c.tokens[0].From
			c.lead = c.buffer[c.leadFrom:c.cursor]
		}
	case parse.OptionOrArgument:
		switch missing := g.missingOptions(); {
		case len(missing) > 0:
			g.options(missing)
		case g.acceptsArgument():
			g.argument()
		default:
			g.options(g.unusedOptions())
		}
	case parse.AnyOption, parse.LongOption:
		g.options(g.unusedOptions())
	case parse.ChainShortOption:
		g.chain()
	case parse.OptionValue, parse.GroupValue:
		g.optionValue(g.ctx.Option)
	case parse.Argument:
		if g.acceptsArgument() {
			g.argument()
		}
	}
}

// Active options of the command that are not Single options already given.
func (g generator) unusedOptions() []*grammar.OptionSpec {
	var opts []*grammar.OptionSpec
	for _, o := range g.ctx.Model.Options() {
		if !o.IsActive(g.res) || (o.Multiplicity == grammar.Single && g.res.Given(o)) {
			continue
		}
		opts = append(opts, o)
	}
	return opts
}

// Required options that have not been given and have no defaults.
func (g generator) missingOptions() []*grammar.OptionSpec {
	var opts []*grammar.OptionSpec
	for _, o := range g.unusedOptions() {
		if o.Required && len(o.Defaults) == 0 && !g.res.Given(o) {
			opts = append(opts, o)
		}
	}
	return opts
}

func (g generator) options(opts []*grammar.OptionSpec) {
	c := g.c
	c.name = "option"
	for _, o := range opts {
		item := Item{Value: o.Display(), Description: o.Description}
		if o.Name != "" && o.HasValue {
			item.Value += "="
			item.ToShow = o.Display()
			item.Partial = true
		}
		c.items = append(c.items, item)
	}
}

// Completes a chain of short options by adding one more.
func (g generator) chain() {
	c := g.c
	c.name = "option"
	seed := g.ctx.Seed
	last := []rune(seed)[len([]rune(seed))-1]
	if o := g.ctx.Model.Short(last); o != nil && o.HasValue {
		// The chain is complete and the option waits for its value.
		c.items = append(c.items, Item{Value: seed, Description: o.Description})
		return
	}
	for _, o := range g.unusedOptions() {
		if o.Short == 0 || slices.Contains([]rune(seed[1:]), o.Short) {
			continue
		}
		c.items = append(c.items, Item{Value: seed + string(o.Short), ToShow: "-" + string(o.Short), Description: o.Description})
	}
}

func (g generator) acceptsArgument() bool {
	a := g.ctx.Model.Argument()
	return a != nil && (a.Multiple || len(g.res.Arguments()) == 0)
}

func (g generator) optionValue(o *grammar.OptionSpec) {
	c := g.c
	c.name = "value"
	inv := g.invocation()
	inv.Option = o
	switch {
	case o.Completer != nil:
		c.complete(o.Completer, inv)
	case len(o.Defaults) > 0:
		c.values(o.Defaults...)
	case o.Kind == grammar.Bool:
		c.values("true", "false")
	case o.Kind == grammar.Path:
		c.paths(Path{})
	}
}

func (g generator) argument() {
	c, a := g.c, g.ctx.Model.Argument()
	c.name = "argument"
	inv := g.invocation()
	inv.Argument = a
	switch {
	case a.Completer != nil:
		c.complete(a.Completer, inv)
	case len(a.Defaults) > 0:
		c.values(a.Defaults...)
	case a.Kind == grammar.Bool:
		c.values("true", "false")
	case a.Kind == grammar.Path || a.Kind == grammar.String:
		c.paths(Path{})
	}
	if a.Multiple {
		given := g.res.Arguments()
		c.items = slices.DeleteFunc(c.items, func(it Item) bool {
			return slices.Contains(given, it.Value)
		})
	}
}

func (g generator) invocation() *grammar.CompleterInvocation {
	return &grammar.CompleterInvocation{
		Seed:    g.ctx.Seed,
		Context: g.res,
		Dirs:    g.c.e.Dirs,
		Fs:      g.c.e.Fs,
	}
}

func (c *completion) values(values ...string) {
	for _, v := range values {
		c.items = append(c.items, Item{Value: v})
	}
}

func (c *completion) complete(completer grammar.Completer, inv *grammar.CompleterInvocation) {
	if p, ok := completer.(Path); ok {
		c.paths(p)
		return
	}
	comps := completer.Complete(inv)
	for _, cand := range comps.Candidates {
		c.items = append(c.items, Item{Value: cand.Value, ToShow: cand.Display, Partial: cand.Partial})
	}
	c.noFilter = comps.IgnoreStartsWith
	c.noOffset = comps.IgnoreOffset
	c.noSpace = comps.NoAppendSeparator
}
