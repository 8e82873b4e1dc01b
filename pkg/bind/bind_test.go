package bind

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/parse"
	"src.gsh.sh/pkg/token"
)

type testCmd struct {
	Verbose bool
	Output  string
	Count   int
	Tags    []string
	Defines map[string]string
	Ratio   *float64
	Timeout time.Duration
	Level   string
	Where   string
	Color   string
	Files   []string
}

func (c *testCmd) Fields() grammar.Fields {
	return grammar.Fields{
		"verbose": Var(&c.Verbose),
		"output":  Var(&c.Output),
		"count":   Var(&c.Count),
		"tag":     List(&c.Tags),
		"define":  Map(&c.Defines),
		"ratio":   Ptr(&c.Ratio),
		"timeout": Var(&c.Timeout),
		"level":   Var(&c.Level),
		"where":   VarOf(grammar.Path, &c.Where),
		"color":   Var(&c.Color),
		"args":    List(&c.Files),
	}
}

var testModel = mustModel(grammar.Def{
	Name: "test",
	Options: []grammar.OptionSpec{
		{Name: "verbose", Short: 'v'},
		{Name: "output", Short: 'o', HasValue: true},
		{Name: "count", Short: 'c', HasValue: true,
			Validator: func(v any) error {
				if v.(int) < 0 {
					return errors.New("must not be negative")
				}
				return nil
			}},
		{Name: "tag", Short: 't', Multiplicity: grammar.List},
		{Name: "define", Short: 'D', Multiplicity: grammar.GroupMap},
		{Name: "ratio", HasValue: true},
		{Name: "timeout", HasValue: true},
		{Name: "level", HasValue: true, Defaults: []string{"info"}},
		{Name: "where", HasValue: true},
		{Name: "color", HasValue: true, Defaults: []string{"red"},
			Selector: &grammar.Selector{Prompt: "color?", Choices: []string{"red", "blue"}}},
	},
	Arguments:    &grammar.ArgumentSpec{},
	GenerateHelp: true,
})

func mustModel(def grammar.Def) *grammar.Model {
	m, err := grammar.New(def)
	if err != nil {
		panic(err)
	}
	return m
}

func parseLine(m *grammar.Model, line string) *parse.Result {
	tokens, err := token.Tokenize(line)
	if err != nil {
		panic(err)
	}
	return parse.Parse(m, tokens, parse.Config{})
}

var testBinder = New(fsutil.NewWorkDir("/work"), nil)

func TestBind(t *testing.T) {
	var cmd testCmd
	res := parseLine(testModel,
		"-v -o out -c 3 -t a,b -t c -Dname1=value1 -Dname2=value2 "+
			"--ratio 0.5 --timeout 2s --where sub f1 f2")
	if err := testBinder.Bind(res, &cmd, Validate); err != nil {
		t.Fatal(err)
	}
	ratio := 0.5
	want := testCmd{
		Verbose: true, Output: "out", Count: 3, Tags: []string{"a", "b", "c"},
		Defines: map[string]string{"name1": "value1", "name2": "value2"},
		Ratio:   &ratio, Timeout: 2 * time.Second, Level: "info",
		Where: "/work/sub", Color: "red", Files: []string{"f1", "f2"},
	}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Errorf("bound target (-want +got):\n%s", diff)
	}
}

func TestBind_ResetsOmittedFields(t *testing.T) {
	cmd := testCmd{}
	full := parseLine(testModel, "-v -o out -c 3 -t a -Dk=v --ratio 1 --timeout 1s --level warn --where x --color blue f")
	if err := testBinder.Bind(full, &cmd, Validate); err != nil {
		t.Fatal(err)
	}
	empty := parseLine(testModel, "")
	if err := testBinder.Bind(empty, &cmd, Validate); err != nil {
		t.Fatal(err)
	}
	// Only fields with defaults survive.
	want := testCmd{Level: "info", Color: "red"}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Errorf("target after binding an empty line (-want +got):\n%s", diff)
	}
}

type plain struct {
	B bool
	S string
	I int
	R rune
	L []int
	M map[string]string
	P *string
	F *bool
}

func (p *plain) Fields() grammar.Fields {
	return grammar.Fields{
		"b": Var(&p.B), "s": Var(&p.S), "i": Var(&p.I), "r": Var(&p.R),
		"l": List(&p.L), "m": Map(&p.M), "p": Ptr(&p.P), "f": Ptr(&p.F),
	}
}

var plainModel = mustModel(grammar.Def{
	Name: "plain",
	Options: []grammar.OptionSpec{
		{Name: "b"}, {Name: "s", HasValue: true}, {Name: "i", HasValue: true},
		{Name: "r", HasValue: true}, {Name: "l", Multiplicity: grammar.List},
		{Name: "m", Multiplicity: grammar.GroupMap}, {Name: "p", HasValue: true},
		{Name: "f"},
	},
})

func TestBind_EmptyResultResetsToZeroValues(t *testing.T) {
	s := "x"
	p := plain{B: true, S: "s", I: 1, R: 'r', L: []int{1}, M: map[string]string{"k": "v"}, P: &s}
	if err := testBinder.Bind(parseLine(plainModel, ""), &p, Validate); err != nil {
		t.Fatal(err)
	}
	// A flag bound to a pointer is false rather than nil.
	no := false
	if diff := cmp.Diff(plain{F: &no}, p); diff != "" {
		t.Errorf("target after binding an empty line (-want +got):\n%s", diff)
	}
}

func TestBind_Idempotent(t *testing.T) {
	res := parseLine(plainModel, "--b --s x --i 2 --r y --l 1,2 --mk=v --p '' --f")
	var a, b plain
	for _, target := range []*plain{&a, &b, &b} {
		if err := testBinder.Bind(res, target, Validate); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("binding twice (-first +second):\n%s", diff)
	}
	if b.P == nil || *b.P != "" || b.R != 'y' || len(b.L) != 2 || b.F == nil || !*b.F {
		t.Errorf("got %+v", b)
	}
}

func TestBind_Errors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"--count x", diag.ErrConversion},
		{"--count -1", diag.ErrValidation},
		{"--timeout soon", diag.ErrConversion},
		{"--bogus", diag.ErrUnknownOption},
		{"--output", diag.ErrMissingValue},
	}
	for _, test := range tests {
		var cmd testCmd
		err := testBinder.Bind(parseLine(testModel, test.line), &cmd, Validate)
		if !errors.Is(err, test.want) {
			t.Errorf("%q: got error %v, want %v", test.line, err, test.want)
		}
	}
}

func TestBind_IntrospectSkipsBadValues(t *testing.T) {
	cmd := testCmd{Count: 7}
	tokens, _ := token.Tokenize("-v --count x")
	res := parse.Parse(testModel, tokens, parse.Config{IgnoreRequirements: true})
	if err := testBinder.Bind(res, &cmd, Introspect); err != nil {
		t.Fatal(err)
	}
	if !cmd.Verbose || cmd.Count != 0 {
		t.Errorf("got %+v", cmd)
	}
}

func TestBind_RequiredMissing(t *testing.T) {
	var out string
	var files []string
	target := fieldsTarget{"name": Var(&out), "args": List(&files)}
	m := mustModel(grammar.Def{
		Name:         "req",
		Options:      []grammar.OptionSpec{{Name: "name", HasValue: true, Required: true}},
		Arguments:    &grammar.ArgumentSpec{Required: true},
		GenerateHelp: true,
	})

	err := testBinder.Bind(parseLine(m, ""), target, Validate)
	if !errors.Is(err, diag.ErrRequiredMissing) {
		t.Errorf("got error %v, want RequiredMissing", err)
	}
	// Parsing with requirements ignored defers nothing.
	res := parse.Parse(m, nil, parse.Config{IgnoreRequirements: true})
	if err := testBinder.Bind(res, target, Validate); err != nil {
		t.Errorf("got error %v with requirements ignored", err)
	}
	// --help overrides requirements, and has no field of its own.
	if err := testBinder.Bind(parseLine(m, "--help"), target, Validate); err != nil {
		t.Errorf("got error %v with --help", err)
	}
}

func TestBind_CommandValidator(t *testing.T) {
	var a, b int
	target := fieldsTarget{"a": Var(&a), "b": Var(&b)}
	m := mustModel(grammar.Def{
		Name:    "range",
		Options: []grammar.OptionSpec{{Name: "a", HasValue: true}, {Name: "b", HasValue: true}},
		Validator: func(grammar.Target) error {
			if a > b {
				return errors.New("a must not exceed b")
			}
			return nil
		},
	})
	if err := testBinder.Bind(parseLine(m, "--a 1 --b 2"), target, Validate); err != nil {
		t.Errorf("got error %v", err)
	}
	if err := testBinder.Bind(parseLine(m, "--a 3 --b 2"), target, Validate); !errors.Is(err, diag.ErrValidation) {
		t.Errorf("got error %v, want Validation", err)
	}
	// Validators do not run when introspecting.
	if err := testBinder.Bind(parseLine(m, "--a 3 --b 2"), target, Introspect); err != nil {
		t.Errorf("got error %v when introspecting", err)
	}
}

func TestBind_MissingField(t *testing.T) {
	err := testBinder.Bind(parseLine(plainModel, "--b"), fieldsTarget{}, Validate)
	if !errors.Is(err, diag.ErrGrammarDefinition) {
		t.Errorf("got error %v, want GrammarDefinition", err)
	}
}

type fakePrompter struct {
	answer string
	err    error
	asked  []string
}

func (p *fakePrompter) Prompt(o *grammar.OptionSpec) (string, error) {
	p.asked = append(p.asked, o.Selector.Prompt)
	return p.answer, p.err
}

func TestBind_Selector(t *testing.T) {
	p := &fakePrompter{answer: "blue"}
	b := New(nil, p)
	var cmd testCmd
	if err := b.Bind(parseLine(testModel, ""), &cmd, Validate); err != nil {
		t.Fatal(err)
	}
	if cmd.Color != "blue" || len(p.asked) != 1 || p.asked[0] != "color?" {
		t.Errorf("got color %q, prompts %v", cmd.Color, p.asked)
	}

	// Given values win over the prompter.
	if err := b.Bind(parseLine(testModel, "--color red"), &cmd, Validate); err != nil || cmd.Color != "red" || len(p.asked) != 1 {
		t.Errorf("got color %q, error %v, prompts %v", cmd.Color, err, p.asked)
	}

	p.answer = "green"
	if err := b.Bind(parseLine(testModel, ""), &cmd, Validate); !errors.Is(err, diag.ErrValidation) {
		t.Errorf("got error %v for an answer that is not a choice", err)
	}
}

func TestBind_BindAll(t *testing.T) {
	var dir string
	var force bool
	var target string
	m := mustModel(grammar.Def{
		Name:    "gut",
		Options: []grammar.OptionSpec{{Name: "git-dir", HasValue: true}},
		Target:  fieldsTarget{"git-dir": Var(&dir)},
		Children: []grammar.Def{{
			Name:     "checkout",
			Options:  []grammar.OptionSpec{{Name: "force", Short: 'f'}},
			Argument: &grammar.ArgumentSpec{Required: true},
			Target:   fieldsTarget{"force": Var(&force), "args": Var(&target)},
		}},
	})
	if err := testBinder.BindAll(parseLine(m, "--git-dir /g checkout -f main"), Validate); err != nil {
		t.Fatal(err)
	}
	if dir != "/g" || !force || target != "main" {
		t.Errorf("got %q %v %q", dir, force, target)
	}
	if err := testBinder.BindAll(parseLine(m, "checkout"), Validate); !errors.Is(err, diag.ErrRequiredMissing) {
		t.Errorf("got error %v, want RequiredMissing", err)
	}
}

type fieldsTarget grammar.Fields

func (f fieldsTarget) Fields() grammar.Fields { return grammar.Fields(f) }

func TestRecord(t *testing.T) {
	m := mustModel(grammar.Def{
		Name: "rec",
		Options: []grammar.OptionSpec{
			{Name: "n", HasValue: true, Kind: grammar.Int},
			{Name: "tag", Multiplicity: grammar.List},
			{Name: "D", Multiplicity: grammar.GroupMap},
			{Name: "flag"},
		},
		Arguments: &grammar.ArgumentSpec{},
	})
	r := NewRecord(m)
	if err := testBinder.Bind(parseLine(m, "--n 4 --tag a,b --Dk=v x y"), r, Validate); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"n": 4, "tag": []any{"a", "b"}, "D": map[string]any{"k": "v"}, "args": []any{"x", "y"},
	}
	if diff := cmp.Diff(want, r.Values()); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if err := testBinder.Bind(parseLine(m, "--flag"), r, Validate); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"flag": true}, r.Values()); diff != "" {
		t.Errorf("record after rebinding (-want +got):\n%s", diff)
	}
}

func TestConverterTable(t *testing.T) {
	table := NewConverterTable(nil)
	tests := []struct {
		kind grammar.Kind
		in   string
		want any
	}{
		{grammar.Int, "12", 12},
		{grammar.Int64, "0x10", int64(16)},
		{grammar.Uint, "7", uint(7)},
		// All integer kinds read the same prefixes.
		{grammar.Int, "0x10", 16},
		{grammar.Int, "010", 8},
		{grammar.Int64, "010", int64(8)},
		{grammar.Uint, "0x10", uint(16)},
		{grammar.Float, "1.5", 1.5},
		{grammar.Bool, "yes", true},
		{grammar.Bool, "off", false},
		{grammar.Rune, "é", 'é'},
		{grammar.Duration, "1m", time.Minute},
		{grammar.Duration, "1.5", 1500 * time.Millisecond},
		{grammar.String, "s", "s"},
	}
	for _, test := range tests {
		got, err := table.Convert(test.kind, test.in)
		if err != nil || got != test.want {
			t.Errorf("Convert(%s, %q) -> (%v, %v), want %v", test.kind, test.in, got, err, test.want)
		}
	}
	for _, bad := range []struct {
		kind grammar.Kind
		in   string
	}{{grammar.Int, "x"}, {grammar.Bool, "maybe"}, {grammar.Rune, "ab"}, {grammar.Duration, "soon"}, {"color", "red"}} {
		if _, err := table.Convert(bad.kind, bad.in); err == nil {
			t.Errorf("Convert(%s, %q) returns no error", bad.kind, bad.in)
		}
	}

	table.Register("hex", func(s string) (any, error) {
		n, err := strconv.ParseInt(s, 16, 64)
		return int(n), err
	})
	if got, err := table.Convert("hex", "ff"); err != nil || got != 255 {
		t.Errorf("custom converter -> (%v, %v)", got, err)
	}
}
