package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/testutil"
	"src.gsh.sh/pkg/tt"
)

func model(def grammar.Def) *grammar.Model {
	m, err := grammar.New(def)
	if err != nil {
		panic(err)
	}
	return m
}

var (
	active   = true
	gut      = model(grammar.Def{Name: "gut", Aliases: []string{"g"}, Children: []grammar.Def{{Name: "help"}, {Name: "rebase", Children: []grammar.Def{{Name: "abort"}}}, {Name: "hidden", Activator: func(grammar.ParseContext) bool { return false }}}})
	grep     = model(grammar.Def{Name: "grep"})
	ls       = model(grammar.Def{Name: "ls"})
	sometime = model(grammar.Def{Name: "sometime", Activator: func(grammar.ParseContext) bool { return active }})
)

func newRegistry(t *testing.T) *Registry {
	r := New()
	for _, m := range []*grammar.Model{gut, grep, ls, sometime} {
		if err := r.Register(m); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)
	tt.Test(t, tt.Fn("Register", r.Register), tt.Table{
		tt.Args(model(grammar.Def{Name: "ls"})).Rets(tt.ErrorIs(diag.ErrGrammarDefinition)),
		tt.Args(model(grammar.Def{Name: "list", Aliases: []string{"ls"}})).Rets(tt.ErrorIs(diag.ErrAliasConflict)),
		tt.Args(model(grammar.Def{Name: "g"})).Rets(tt.ErrorIs(diag.ErrGrammarDefinition)),
		tt.Args(model(grammar.Def{Name: "cat"})).Rets(nil),
	})
	if r.Lookup("list") != nil {
		t.Errorf("failed registration left names behind")
	}
	if r.Lookup("g") != gut || r.Lookup("cat") == nil {
		t.Errorf("Lookup failed")
	}
}

func TestUnregister(t *testing.T) {
	r := newRegistry(t)
	if err := r.Unregister("g"); !errors.Is(err, diag.ErrUnknownCommand) {
		t.Errorf("Unregister by alias -> %v", err)
	}
	if err := r.Unregister("gut"); err != nil {
		t.Fatal(err)
	}
	if r.Lookup("gut") != nil || r.Lookup("g") != nil {
		t.Errorf("gut is still registered")
	}
	if err := r.Unregister("gut"); !errors.Is(err, diag.ErrUnknownCommand) {
		t.Errorf("second Unregister -> %v", err)
	}
}

func TestResolve(t *testing.T) {
	r := newRegistry(t)
	testutil.Set(t, &active, false)
	resolve := func(name string) (string, error) {
		m, err := r.Resolve(name)
		if m == nil {
			return "", err
		}
		return m.Path(), err
	}
	tt.Test(t, tt.Fn("Resolve", resolve), tt.Table{
		tt.Args("gut").Rets("gut", nil),
		tt.Args("g").Rets("gut", nil),
		tt.Args("gerp").Rets("", tt.ErrorIs(diag.ErrUnknownCommand)),
		tt.Args("sometime").Rets("", tt.ErrorIs(diag.ErrActivation)),
	})

	_, err := r.Resolve("sometime")
	if err == nil || err.Error() != "activation error: "+diag.NotActivated {
		t.Errorf("got error %v", err)
	}
	_, err = r.Resolve("gerp")
	var e *diag.Error
	if !errors.As(err, &e) || len(e.Suggestions) == 0 || e.Suggestions[0] != "grep" {
		t.Errorf("got error %#v", err)
	}
}

func TestResolvePath(t *testing.T) {
	r := newRegistry(t)
	for _, test := range []struct {
		words []string
		path  string
		n     int
		err   error
	}{
		{[]string{"gut"}, "gut", 1, nil},
		{[]string{"g", "rebase", "abort", "x"}, "gut rebase abort", 3, nil},
		{[]string{"gut", "--help"}, "gut", 1, nil},
		{[]string{"gut", "hidden"}, "", 1, diag.ErrActivation},
		{[]string{"nope"}, "", 0, diag.ErrUnknownCommand},
		{nil, "", 0, diag.ErrUnknownCommand},
	} {
		m, n, err := r.ResolvePath(test.words)
		var path string
		if m != nil {
			path = m.Path()
		}
		if path != test.path || n != test.n || !errors.Is(err, test.err) {
			t.Errorf("ResolvePath(%q) -> (%q, %d, %v), want (%q, %d, %v)",
				test.words, path, n, err, test.path, test.n, test.err)
		}
	}
}

func TestComplete(t *testing.T) {
	r := newRegistry(t)
	if err := r.AddAlias("gst", "gut status"); err != nil {
		t.Fatal(err)
	}
	tt.Test(t, tt.Fn("Complete", r.Complete), tt.Table{
		tt.Args("g").Rets([]string{"g", "grep", "gst", "gut"}),
		tt.Args("gu").Rets([]string{"gut"}),
		tt.Args("").Rets([]string{"g", "grep", "gst", "gut", "ls", "sometime"}),
		tt.Args("x").Rets([]string(nil)),
	})
	testutil.Set(t, &active, false)
	tt.Test(t, tt.Fn("Complete", r.Complete), tt.Table{
		tt.Args("s").Rets([]string(nil)),
	})
}

func TestCommands(t *testing.T) {
	r := newRegistry(t)
	var names []string
	for _, m := range r.Commands() {
		names = append(names, m.Name())
	}
	if diff := cmp.Diff([]string{"grep", "gut", "ls", "sometime"}, names); diff != "" {
		t.Errorf("Commands (-want +got):\n%s", diff)
	}
}

func TestAliases(t *testing.T) {
	r := newRegistry(t)
	tt.Test(t, tt.Fn("AddAlias", r.AddAlias), tt.Table{
		tt.Args("ll", "ls -l").Rets(nil),
		tt.Args("ll", "ls -la").Rets(nil),
		tt.Args("la", "ls -a").Rets(nil),
		tt.Args("bad name", "x").Rets(tt.ErrorIs(diag.ErrGrammarDefinition)),
		tt.Args("", "x").Rets(tt.ErrorIs(diag.ErrGrammarDefinition)),
	})
	want := []Alias{{"la", "ls -a"}, {"ll", "ls -la"}}
	if diff := cmp.Diff(want, r.Aliases()); diff != "" {
		t.Errorf("Aliases (-want +got):\n%s", diff)
	}

	// An alias named like a live command is rejected and the alias table is
	// left unchanged.
	for _, name := range []string{"ls", "g"} {
		if !r.WouldConflict(name) {
			t.Errorf("WouldConflict(%q) = false", name)
		}
		if err := r.AddAlias(name, "echo"); !errors.Is(err, diag.ErrAliasConflict) {
			t.Errorf("AddAlias(%q) -> %v, want AliasConflict", name, err)
		}
	}
	if diff := cmp.Diff(want, r.Aliases()); diff != "" {
		t.Errorf("Aliases after conflicts (-want +got):\n%s", diff)
	}

	// Registering a command named like an alias is rejected too.
	if err := r.Register(model(grammar.Def{Name: "ll"})); !errors.Is(err, diag.ErrAliasConflict) {
		t.Errorf("Register(ll) -> %v, want AliasConflict", err)
	}

	if v, ok := r.LookupAlias("ll"); !ok || v != "ls -la" {
		t.Errorf("LookupAlias(ll) -> %q, %v", v, ok)
	}
	if err := r.RemoveAlias("ll"); err != nil {
		t.Fatal(err)
	}
	if err := r.RemoveAlias("ll"); err == nil {
		t.Errorf("removing a missing alias succeeded")
	}
	if r.WouldConflict("ll") {
		t.Errorf("WouldConflict(ll) = true for an alias")
	}
}

func TestConcurrentReadersSeeWholeUpdates(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// A command and its alias are published together.
				names := r.Complete("cmd")
				if len(names)%2 != 0 {
					t.Errorf("saw a partial update: %v", names)
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("cmd%03d", i)
		if err := r.Register(model(grammar.Def{Name: name, Aliases: []string{name + "-alias"}})); err != nil {
			t.Error(err)
		}
	}
	close(stop)
	wg.Wait()
	if got := len(r.Complete("cmd")); got != 200 {
		t.Errorf("got %d names, want 200", got)
	}
}
