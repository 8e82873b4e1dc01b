package parse

import (
	"strings"
	"unicode/utf8"

	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/token"
)

// ContextType says what the token being completed is.
type ContextType uint8

// Possible values of ContextType.
const (
	// Nothing can be completed, because an earlier token could not be
	// matched.
	None ContextType = iota
	// A sub-command name.
	Child
	// Either an option or an argument; the token is empty.
	OptionOrArgument
	// A short or long option; the token is "-".
	AnyOption
	// A long option name; the token starts with "--".
	LongOption
	// A chain of short options that take no values, to which another may be
	// added.
	ChainShortOption
	// The value of Context.Option.
	OptionValue
	// The key=value pair of the GroupMap option Context.Option.
	GroupValue
	// A positional argument.
	Argument
)

var contextTypeNames = [...]string{
	"None", "Child", "OptionOrArgument", "AnyOption", "LongOption",
	"ChainShortOption", "OptionValue", "GroupValue", "Argument",
}

func (t ContextType) String() string {
	if int(t) < len(contextTypeNames) {
		return contextTypeNames[t]
	}
	return "ContextType(?)"
}

// Context describes the token being completed.
type Context struct {
	Type ContextType
	// The command the token belongs to.
	Model *grammar.Model
	// The option whose value is completed, for OptionValue and GroupValue.
	Option *grammar.OptionSpec
	// The token being completed.
	Token token.Token
	// Part of the token's value to be completed. For option names this is
	// the whole value; for option values attached to the option, as in
	// --name=val or -oval, it is the part after the option.
	Seed string
	// The raw text Seed was written as.
	RawSeed string
}

// Complete parses all tokens but the last with requirements ignored and
// describes the last one, which is the token being completed. An empty token
// should be passed when the cursor follows whitespace. Unknown options and
// unexpected arguments before the last token are skipped; other errors make
// the Context None.
func Complete(m *grammar.Model, tokens []token.Token) (*Result, Context) {
	var last token.Token
	if n := len(tokens); n > 0 {
		last, tokens = tokens[n-1], tokens[:n-1]
	}
	p := &parser{res: newResult(m, nil), tokens: tokens, completing: true}
	p.run()
	res := p.res
	for _, r := range res.Chain() {
		r.IgnoredRequirements = true
	}
	ctx := Context{Model: res.Model, Token: last, Seed: last.Value, RawSeed: last.Raw}
	switch {
	case p.failed:
		ctx.Type = None
	case p.pending != nil:
		ctx.Option = p.pending
		ctx.Type = valueType(p.pending)
	default:
		p.classify(&ctx)
	}
	return res, ctx
}

func valueType(o *grammar.OptionSpec) ContextType {
	if o.Multiplicity == grammar.GroupMap {
		return GroupValue
	}
	return OptionValue
}

func (p *parser) classify(ctx *Context) {
	m, res := p.res.Model, p.res
	v := ctx.Token.Value
	switch {
	case p.noMoreOptions:
		ctx.Type = p.positionalType()
	case v == "":
		ctx.Type = OptionOrArgument
		if p.expectsChild() {
			ctx.Type = Child
		}
	case v == "-":
		ctx.Type = AnyOption
	case strings.HasPrefix(v, "--"):
		body := v[2:]
		name, value, hasValue := strings.Cut(body, "=")
		matches := m.LongPrefix(name, res)
		switch {
		case hasValue && len(matches) == 1 && matches[0].HasValue:
			ctx.Option = matches[0]
			ctx.Type = valueType(matches[0])
			ctx.setSeed(value, "--"+name+"=")
		case hasValue || len(matches) == 0:
			if o, kv := m.GroupPrefix(body, true, res); o != nil && kv != "" {
				ctx.Option = o
				ctx.Type = GroupValue
				ctx.setSeed(kv, "--"+o.Name)
			} else if !hasValue {
				ctx.Type = LongOption
			}
		default:
			ctx.Type = LongOption
		}
	case v[0] == '-':
		body := v[1:]
		if o, kv := m.GroupPrefix(body, false, res); o != nil {
			ctx.Option = o
			ctx.Type = GroupValue
			ctx.setSeed(kv, "-"+string(o.Short))
			return
		}
		for i, r := range body {
			o := m.Short(r)
			if o == nil || !o.IsActive(res) {
				return
			}
			if !o.HasValue {
				continue
			}
			rest := body[i+utf8.RuneLen(r):]
			if rest == "" {
				break
			}
			ctx.Option = o
			ctx.Type = OptionValue
			prefix := v[:1+i+utf8.RuneLen(r)]
			if strings.HasPrefix(rest, "=") {
				rest, prefix = rest[1:], prefix+"="
			}
			ctx.setSeed(rest, prefix)
			return
		}
		ctx.Type = ChainShortOption
	default:
		ctx.Type = p.positionalType()
	}
}

func (p *parser) positionalType() ContextType {
	if p.expectsChild() {
		return Child
	}
	return Argument
}

// Sets the seed to the part of the token after prefix.
func (ctx *Context) setSeed(seed, prefix string) {
	ctx.Seed = seed
	if strings.HasPrefix(ctx.Token.Raw, prefix) {
		ctx.RawSeed = ctx.Token.Raw[len(prefix):]
	} else {
		ctx.RawSeed = seed
	}
}
