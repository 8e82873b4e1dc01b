package parse

import (
	"errors"
	"testing"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/token"
	"src.gsh.sh/pkg/tt"
)

func mustModel(def grammar.Def) *grammar.Model {
	m, err := grammar.New(def)
	if err != nil {
		panic(err)
	}
	return m
}

var cmdModel = mustModel(grammar.Def{
	Name: "cmd",
	Options: []grammar.OptionSpec{
		{Name: "verbose", Short: 'v'},
		{Name: "all", Short: 'a'},
		{Name: "output", Short: 'o', HasValue: true},
		{Name: "out-format", HasValue: true},
		{Name: "tag", Short: 't', Multiplicity: grammar.List},
		{Name: "define", Short: 'D', Multiplicity: grammar.GroupMap},
		{Name: "name", Required: true, HasValue: true},
		{Name: "secret", Activator: func(ctx grammar.ParseContext) bool { return ctx.Has("all") }},
	},
	Arguments:    &grammar.ArgumentSpec{},
	GenerateHelp: true,
})

var gutModel = mustModel(grammar.Def{
	Name:    "gut",
	Options: []grammar.OptionSpec{{Name: "git-dir", HasValue: true}},
	Children: []grammar.Def{
		{Name: "help"},
		{
			Name:     "rebase",
			Options:  []grammar.OptionSpec{{Name: "interactive", Short: 'i'}},
			Argument: &grammar.ArgumentSpec{Required: true},
		},
		{Name: "secret", Activator: func(grammar.ParseContext) bool { return false }},
	},
})

func toks(line string) []token.Token {
	tokens, _ := token.Tokenize(line)
	return tokens
}

type opts map[string][]string

func summary(res *Result) (opts, []string) {
	values := make(opts)
	for _, o := range res.GivenOptions() {
		values[o.Display()] = res.OptionValues(o)
	}
	return values, res.Arguments()
}

func parseCmd(line string) (opts, []string, error) {
	res := Parse(cmdModel, toks(line), Config{IgnoreRequirements: true})
	values, args := summary(res)
	return values, args, res.Err()
}

func TestParse(t *testing.T) {
	tt.Test(t, tt.Fn("Parse", parseCmd), tt.Table{
		tt.Args("").Rets(opts{}, []string(nil), nil),
		tt.Args("-v file").Rets(opts{"--verbose": {"true"}}, []string{"file"}, nil),
		tt.Args("-va --output=x a b").Rets(
			opts{"--verbose": {"true"}, "--all": {"true"}, "--output": {"x"}}, []string{"a", "b"}, nil),
		// The first short option taking a value consumes the rest of the chain
		// or the next token.
		tt.Args("-vox").Rets(opts{"--verbose": {"true"}, "--output": {"x"}}, []string(nil), nil),
		tt.Args("-vo x").Rets(opts{"--verbose": {"true"}, "--output": {"x"}}, []string(nil), nil),
		tt.Args("-o=x").Rets(opts{"--output": {"x"}}, []string(nil), nil),
		tt.Args("-o a -o b").Rets(opts{"--output": {"b"}}, []string(nil), nil),
		// Unique prefixes of long options.
		tt.Args("--outp x").Rets(opts{"--output": {"x"}}, []string(nil), nil),
		tt.Args("--out x").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrAmbiguousOption)),
		tt.Args("--verbose=false").Rets(opts{"--verbose": {"false"}}, []string(nil), nil),
		tt.Args("-t a,b --tag c").Rets(opts{"--tag": {"a", "b", "c"}}, []string(nil), nil),
		tt.Args("-Dname1=value1 -Dname2=value2").Rets(
			opts{"--define": {"name1=value1", "name2=value2"}}, []string(nil), nil),
		tt.Args("-D k=v --definex=y --define z=w").Rets(
			opts{"--define": {"k=v", "x=y", "z=w"}}, []string(nil), nil),
		tt.Args("-v -- -a --output").Rets(opts{"--verbose": {"true"}}, []string{"-a", "--output"}, nil),
		tt.Args("- x").Rets(opts{}, []string{"-", "x"}, nil),
		tt.Args(`'-v' "a b"`).Rets(opts{"--verbose": {"true"}}, []string{"a b"}, nil),
		// Errors.
		tt.Args("--bogus").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrUnknownOption)),
		tt.Args("-vx").Rets(opts{"--verbose": {"true"}}, []string(nil), tt.ErrorIs(diag.ErrUnknownOption)),
		tt.Args("--output").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrMissingValue)),
		tt.Args("-D").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrMissingValue)),
		tt.Args("-D=v").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrMissingValue)),
		// Inactive options are unknown.
		tt.Args("--secret").Rets(opts{}, []string(nil), tt.ErrorIs(diag.ErrUnknownOption)),
		tt.Args("-a --secret").Rets(opts{"--all": {"true"}, "--secret": {"true"}}, []string(nil), nil),
	})
}

func TestParse_ErrorsStopParsing(t *testing.T) {
	res := Parse(cmdModel, toks("--bogus -v x"), Config{})
	if len(res.Errors) != 1 || res.Given(cmdModel.Long("verbose")) || len(res.Arguments()) != 0 {
		t.Errorf("got errors %v, options %v, arguments %v", res.Errors, res.GivenOptions(), res.Arguments())
	}
	var e *diag.Error
	if !errors.As(res.Err(), &e) || e.From != 0 || e.To != 7 || e.Name != "--bogus" {
		t.Errorf("got error %#v", res.Err())
	}
}

func TestParse_UnknownOptionSuggestions(t *testing.T) {
	res := Parse(cmdModel, toks("--verbos"), Config{})
	var e *diag.Error
	// --verbos is a prefix of --verbose and is accepted.
	if res.Err() != nil {
		t.Fatalf("got error %v", res.Err())
	}
	res = Parse(cmdModel, toks("--vrebose"), Config{})
	if !errors.As(res.Err(), &e) || len(e.Suggestions) == 0 || e.Suggestions[0] != "--verbose" {
		t.Errorf("got error %#v", res.Err())
	}
}

func TestParse_GroupMap(t *testing.T) {
	res := Parse(cmdModel, toks("-Dname1=value1 -Dname2=value2 -Dname1=again"), Config{IgnoreRequirements: true})
	got := res.Group(cmdModel.Long("define"))
	if len(got) != 2 || got["name1"] != "again" || got["name2"] != "value2" {
		t.Errorf("got %v", got)
	}
}

func TestParse_Requirements(t *testing.T) {
	tests := []struct {
		line    string
		missing int
	}{
		{"-v", 1},
		{"--name n", 0},
		{"-h", 0},
		{"--help", 0},
	}
	for _, test := range tests {
		res := Parse(cmdModel, toks(test.line), Config{})
		if len(res.Deferred) != test.missing {
			t.Errorf("%q: got deferred errors %v, want %d", test.line, res.Deferred, test.missing)
		}
		for _, err := range res.Deferred {
			if !errors.Is(err, diag.ErrRequiredMissing) {
				t.Errorf("%q: got deferred error %v", test.line, err)
			}
		}
		if len(res.Errors) != 0 {
			t.Errorf("%q: got parse errors %v", test.line, res.Errors)
		}
	}

	res := Parse(cmdModel, toks("-v"), Config{IgnoreRequirements: true})
	if len(res.Deferred) != 0 || !res.IgnoredRequirements {
		t.Errorf("requirements not ignored: %v", res.Deferred)
	}

	res = Parse(gutModel, toks("rebase"), Config{})
	if len(res.Deferred) != 1 || !errors.Is(res.Deferred[0], diag.ErrRequiredMissing) {
		t.Errorf("missing argument not reported: %v", res.Deferred)
	}
}

func TestParse_Children(t *testing.T) {
	res := Parse(gutModel, toks("--git-dir=/g rebase -i main"), Config{})
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}
	if res.Model.Path() != "gut rebase" || res.Parent == nil || res.Parent.Model != gutModel {
		t.Fatalf("got model %s", res.Model.Path())
	}
	if !res.Has("interactive") || !res.Has("i") || res.Arguments()[0] != "main" {
		t.Errorf("got options %v, arguments %v", res.GivenOptions(), res.Arguments())
	}
	if v := res.Parent.Values("git-dir"); len(v) != 1 || v[0] != "/g" {
		t.Errorf("parent values = %v", v)
	}
	if chain := res.Chain(); len(chain) != 2 || chain[0] != res.Parent {
		t.Errorf("chain = %v", chain)
	}

	tt.Test(t, tt.Fn("Parse(gut)", func(line string) error {
		return Parse(gutModel, toks(line), Config{}).Err()
	}), tt.Table{
		tt.Args("help").Rets(nil),
		tt.Args("").Rets(nil),
		tt.Args("rebsae").Rets(tt.ErrorIs(diag.ErrChildNotFound)),
		tt.Args("secret").Rets(tt.ErrorIs(diag.ErrActivation)),
		tt.Args("rebase a b").Rets(tt.ErrorIs(diag.ErrUnexpectedArgument)),
		tt.Args("help x").Rets(tt.ErrorIs(diag.ErrUnexpectedArgument)),
	})

	var e *diag.Error
	if err := Parse(gutModel, toks("secret"), Config{}).Err(); !errors.As(err, &e) || e.Message != diag.NotActivated {
		t.Errorf("got %v", err)
	}
	if err := Parse(gutModel, toks("rebsae"), Config{}).Err(); !errors.As(err, &e) || len(e.Suggestions) == 0 || e.Suggestions[0] != "rebase" {
		t.Errorf("got %v", err)
	}
}

var boxModel = mustModel(grammar.Def{
	Name:      "box",
	Children:  []grammar.Def{{Name: "help"}},
	Arguments: &grammar.ArgumentSpec{Required: true},
})

func TestParse_GroupWithArguments(t *testing.T) {
	parseBox := func(line string) (string, []string, error) {
		res := Parse(boxModel, toks(line), Config{})
		return res.Model.Path(), res.Arguments(), res.Err()
	}
	tt.Test(t, tt.Fn("Parse(box)", parseBox), tt.Table{
		tt.Args("file.txt").Rets("box", []string{"file.txt"}, nil),
		tt.Args("a help").Rets("box", []string{"a", "help"}, nil),
		tt.Args("help").Rets("box help", []string(nil), nil),
		tt.Args("").Rets("box", []string(nil), tt.ErrorIs(diag.ErrRequiredMissing)),
	})
}
