// Package registry keeps the set of commands known to a shell, resolves
// command names and aliases to grammars, and answers name completion
// queries.
//
// Readers never block: every change builds a new copy-on-write snapshot of
// the index, which is then published atomically.
package registry

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/btree"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[registry] ")

type index struct {
	// Command names and declared aliases.
	commands *btree.Map[string, *grammar.Model]
	// User-defined aliases, mapped to the text they stand for.
	aliases *btree.Map[string, string]
}

// Registry is a set of commands and aliases. It is safe for concurrent use.
type Registry struct {
	// Serializes writers.
	mu  sync.Mutex
	cur atomic.Pointer[index]
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.cur.Store(&index{
		commands: btree.NewMap[string, *grammar.Model](0),
		aliases:  btree.NewMap[string, string](0),
	})
	return r
}

func (r *Registry) load() *index { return r.cur.Load() }

// Applies f to a copy of the index, and publishes the copy if f succeeds.
func (r *Registry) update(f func(*index) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.load()
	next := &index{commands: old.commands.Copy(), aliases: old.aliases.Copy()}
	if err := f(next); err != nil {
		return err
	}
	r.cur.Store(next)
	return nil
}

// Register adds a command. It fails with a GrammarDefinition error if the
// command name is taken, and with an AliasConflict error if one of its
// declared aliases is taken or if any of its names is a user alias.
func (r *Registry) Register(m *grammar.Model) error {
	return r.update(func(idx *index) error {
		if _, taken := idx.commands.Get(m.Name()); taken {
			return diag.Errorf(diag.GrammarDefinition, m.Name(),
				"command %s is already registered", m.Name())
		}
		for _, name := range m.Names() {
			if other, taken := idx.commands.Get(name); taken {
				return diag.Errorf(diag.AliasConflict, name,
					"alias %s of %s is already used by %s", name, m.Name(), other.Name())
			}
			if _, taken := idx.aliases.Get(name); taken {
				return diag.Errorf(diag.AliasConflict, name,
					"%s is already defined as an alias", name)
			}
		}
		for _, name := range m.Names() {
			idx.commands.Set(name, m)
		}
		logger.Debug().Str("command", m.Name()).Strs("aliases", m.Aliases()).Msg("registered")
		return nil
	})
}

// Unregister removes the command with the given name, along with its
// declared aliases.
func (r *Registry) Unregister(name string) error {
	return r.update(func(idx *index) error {
		m, ok := idx.commands.Get(name)
		if !ok || m.Name() != name {
			return diag.Errorf(diag.UnknownCommand, name, "%s is not a registered command", name)
		}
		for _, n := range m.Names() {
			idx.commands.Delete(n)
		}
		logger.Debug().Str("command", name).Msg("unregistered")
		return nil
	})
}

// Lookup finds a command by name or declared alias, regardless of whether it
// is active. It returns nil if there is no such command.
func (r *Registry) Lookup(name string) *grammar.Model {
	m, _ := r.load().commands.Get(name)
	return m
}

// Resolve finds an active command by name or declared alias. It fails with
// an UnknownCommand error carrying suggestions when there is no such command,
// and with an Activation error when the command is not active.
func (r *Registry) Resolve(name string) (*grammar.Model, error) {
	idx := r.load()
	m, ok := idx.commands.Get(name)
	if !ok {
		return nil, &diag.Error{
			Kind: diag.UnknownCommand, Name: name, Message: name,
			Suggestions: diag.Suggest(name, idx.activeNames()),
		}
	}
	if !m.IsActive(grammar.NoContext) {
		return nil, diag.Errorf(diag.Activation, name, diag.NotActivated)
	}
	return m, nil
}

// ResolvePath resolves words like "gut rebase" to the deepest sub-command
// they name. It returns the command and the number of words used.
func (r *Registry) ResolvePath(words []string) (*grammar.Model, int, error) {
	if len(words) == 0 {
		return nil, 0, diag.Errorf(diag.UnknownCommand, "", "no command given")
	}
	m, err := r.Resolve(words[0])
	if err != nil {
		return nil, 0, err
	}
	n := 1
	for ; n < len(words); n++ {
		child := m.Child(words[n])
		if child == nil {
			break
		}
		if !child.IsActive(grammar.NoContext) {
			return nil, n, diag.Errorf(diag.Activation, child.Path(), diag.NotActivated)
		}
		m = child
	}
	return m, n, nil
}

// Commands returns the registered commands, ordered by name.
func (r *Registry) Commands() []*grammar.Model {
	var models []*grammar.Model
	r.load().commands.Scan(func(name string, m *grammar.Model) bool {
		if name == m.Name() {
			models = append(models, m)
		}
		return true
	})
	return models
}

// Complete returns the names and aliases of active commands, and the user
// aliases, that start with prefix, sorted.
func (r *Registry) Complete(prefix string) []string {
	idx := r.load()
	var names []string
	idx.commands.Ascend(prefix, func(name string, m *grammar.Model) bool {
		if !strings.HasPrefix(name, prefix) {
			return false
		}
		if m.IsActive(grammar.NoContext) {
			names = append(names, name)
		}
		return true
	})
	var aliases []string
	idx.aliases.Ascend(prefix, func(name, _ string) bool {
		if !strings.HasPrefix(name, prefix) {
			return false
		}
		aliases = append(aliases, name)
		return true
	})
	return mergeSorted(names, aliases)
}

func (idx *index) activeNames() []string {
	var names []string
	idx.commands.Scan(func(name string, m *grammar.Model) bool {
		if m.IsActive(grammar.NoContext) {
			names = append(names, name)
		}
		return true
	})
	idx.aliases.Scan(func(name, _ string) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Merges two sorted lists that have no element in common.
func mergeSorted(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0] < b[0] {
			merged, a = append(merged, a[0]), a[1:]
		} else {
			merged, b = append(merged, b[0]), b[1:]
		}
	}
	return append(append(merged, a...), b...)
}
