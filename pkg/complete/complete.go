// Package complete implements the completion algorithm of gsh.
package complete

import (
	"sort"
	"strings"

	"github.com/spf13/afero"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/logutil"
	"src.gsh.sh/pkg/parse"
	"src.gsh.sh/pkg/registry"
	"src.gsh.sh/pkg/token"
)

var logger = logutil.GetLogger("[complete] ")

// Engine completes command lines against the commands of a registry.
type Engine struct {
	Registry *registry.Registry
	// Operators delimiting segments. Defaults to token.DefaultTable().
	Operators *token.Table
	// Directories used to resolve paths. Defaults to the process's.
	Dirs fsutil.Dirs
	// Filesystem listed by path completion. Defaults to the OS filesystem.
	Fs afero.Fs
	// Filters candidates against the text typed so far. Defaults to
	// FilterPrefix.
	Filterer Filterer
}

// Filterer is the type of functions that filter candidates against a seed.
// The items are sorted by Value when passed in; a Filterer may reorder them.
type Filterer func(seed string, items []Item) []Item

// Item is a completion candidate.
type Item struct {
	// The candidate without quoting.
	Value string
	// Text that replaces Result.Replace.
	ToInsert string
	// Text shown in listings.
	ToShow      string
	Description string
	// The candidate is not a whole word, like a directory or "--opt=", so
	// no separator should follow it.
	Partial bool
}

// Result is the outcome of completing a line.
type Result struct {
	// What was completed: "command", "child", "option", "value", "argument"
	// or "redirect". Empty when nothing could be completed.
	Name  string
	Items []Item
	// Part of the buffer replaced by an item.
	Replace diag.Ranging
	// Number of characters before the cursor replaced by an item.
	Offset int
	// Whether a separator should be inserted after the item. Only set when
	// there is exactly one item.
	AppendSeparator bool
	// The items are inserted at the cursor instead of replacing the seed.
	IgnoreOffset bool
	// The items were not filtered against the seed.
	IgnoreStartsWith bool
}

// Count returns the number of candidates.
func (r *Result) Count() int { return len(r.Items) }

// Apply returns the buffer and cursor after inserting the given item.
func (r *Result) Apply(buffer string, i int) (string, int) {
	insert := r.Items[i].ToInsert
	if r.AppendSeparator {
		insert += " "
	}
	return buffer[:r.Replace.From] + insert + buffer[r.Replace.To:], r.Replace.From + len(insert)
}

// Complete completes the buffer at the cursor, a byte offset. It never
// returns nil; a Result with no items means there is nothing to complete.
func (e *Engine) Complete(buffer string, cursor int) *Result {
	cursor = max(0, min(cursor, len(buffer)))
	line := buffer[:cursor]

	ops := e.Operators
	if ops == nil {
		ops = token.DefaultTable()
	}
	matches, _ := ops.Operators(line)
	segStart := 0
	var redirect bool
	if n := len(matches); n > 0 {
		segStart = matches[n-1].To
		redirect = matches[n-1].TakesArgument
	}
	seg := line[segStart:]

	tokens, err := token.Tokenize(seg)
	if err != nil && !diag.IsPartial(err) {
		logger.Debug().Err(err).Msg("cannot tokenize segment")
		return &Result{Replace: diag.PointRanging(cursor)}
	}
	if n := len(tokens); n == 0 || (tokens[n-1].To < len(seg) && tokens[n-1].Quote == 0) {
		tokens = append(tokens, token.Token{Ranging: diag.PointRanging(len(seg))})
	}

	c := &completion{e: e, buffer: buffer, cursor: cursor, segStart: segStart, tokens: tokens}
	switch {
	case redirect:
		if len(tokens) == 1 {
			c.redirectTarget()
		}
	case len(tokens) == 1:
		c.commandName()
	default:
		c.command()
	}
	return c.finish()
}

// State of one completion request.
type completion struct {
	e        *Engine
	buffer   string
	cursor   int
	segStart int
	tokens   []token.Token

	name     string
	items    []Item
	seed     string
	rawSeed  string
	quote    rune
	noFilter bool
	noOffset bool
	noSpace  bool
	// Text kept before each candidate when the replaced range starts
	// before the seed.
	lead     string
	leadFrom int
}

// Sets the seed to the last token.
func (c *completion) seedFromToken() {
	last := c.tokens[len(c.tokens)-1]
	c.seed, c.rawSeed, c.quote = last.Value, last.Raw, last.Quote
}

func (c *completion) finish() *Result {
	items := c.items
	sort.SliceStable(items, func(i, j int) bool { return items[i].Value < items[j].Value })
	items = dedup(items)
	if !c.noFilter {
		filter := c.e.Filterer
		if filter == nil {
			filter = FilterPrefix
		}
		items = filter(c.seed, items)
	}

	res := &Result{Name: c.name, IgnoreOffset: c.noOffset, IgnoreStartsWith: c.noFilter}
	switch {
	case c.noOffset:
		res.Replace = diag.PointRanging(c.cursor)
	case c.lead != "":
		res.Replace = diag.Ranging{From: c.leadFrom, To: c.cursor}
	default:
		res.Replace = diag.Ranging{From: c.cursor - len(c.rawSeed), To: c.cursor}
	}
	res.Offset = res.Replace.Len()

	for i := range items {
		it := &items[i]
		if it.ToShow == "" {
			it.ToShow = it.Value
		}
		if it.ToInsert == "" {
			it.ToInsert = c.lead + c.cook(it.Value)
		}
	}
	res.Items = items
	res.AppendSeparator = len(items) == 1 && !items[0].Partial && !c.noSpace
	return res
}

// Quotes a candidate the way the seed is quoted.
func (c *completion) cook(v string) string {
	switch {
	case c.noOffset:
		return token.QuoteIn(v, c.quote)
	case c.rawSeed != "" && (c.rawSeed[0] == '\'' || c.rawSeed[0] == '"'):
		q := rune(c.rawSeed[0])
		return string(q) + token.QuoteIn(v, q) + string(q)
	default:
		return token.Escape(v)
	}
}

func dedup(items []Item) []Item {
	var result []Item
	for i, item := range items {
		if i == 0 || item.Value != items[i-1].Value {
			result = append(result, item)
		}
	}
	return result
}

func (c *completion) commandName() {
	c.name = "command"
	c.seedFromToken()
	if strings.ContainsRune(c.seed, '/') {
		return
	}
	for _, name := range c.e.Registry.Complete("") {
		c.items = append(c.items, Item{Value: name, Description: c.describe(name)})
	}
}

func (c *completion) describe(name string) string {
	if m := c.e.Registry.Lookup(name); m != nil {
		return m.Description()
	}
	if value, ok := c.e.Registry.LookupAlias(name); ok {
		return "alias for " + value
	}
	return ""
}

func (c *completion) redirectTarget() {
	c.name = "redirect"
	c.seedFromToken()
	c.paths(Path{})
}

func (c *completion) command() {
	words := c.tokens[1:]
	name := c.tokens[0].Value
	if value, ok := c.e.Registry.LookupAlias(name); ok {
		atoks, err := token.Tokenize(value)
		if err != nil || len(atoks) == 0 {
			return
		}
		name = atoks[0].Value
		words = append(atoks[1:len(atoks):len(atoks)], words...)
	}
	m, err := c.e.Registry.Resolve(name)
	if err != nil {
		logger.Debug().Err(err).Str("command", name).Msg("no completion")
		return
	}
	res, ctx := parse.Complete(m, words)
	c.seed, c.rawSeed, c.quote = ctx.Seed, ctx.RawSeed, ctx.Token.Quote
	g := generator{c: c, res: res, ctx: ctx}
	g.generate()
}
