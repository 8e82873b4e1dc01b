package registry

import (
	"strings"
	"unicode"

	"src.gsh.sh/pkg/diag"
)

// Alias is a user-defined alias.
type Alias struct {
	Name  string
	Value string
}

// WouldConflict reports whether an alias with the given name would shadow a
// command name or a declared command alias.
func (r *Registry) WouldConflict(name string) bool {
	_, taken := r.load().commands.Get(name)
	return taken
}

// AddAlias defines or redefines a user alias. It fails with an AliasConflict
// error, leaving the aliases unchanged, when the name would shadow a command.
func (r *Registry) AddAlias(name, value string) error {
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 || strings.ContainsRune(name, '=') {
		return diag.Errorf(diag.GrammarDefinition, name, "invalid alias name %q", name)
	}
	return r.update(func(idx *index) error {
		if m, taken := idx.commands.Get(name); taken {
			return diag.Errorf(diag.AliasConflict, name,
				"%s would shadow the command %s", name, m.Name())
		}
		idx.aliases.Set(name, value)
		logger.Debug().Str("alias", name).Str("value", value).Msg("alias defined")
		return nil
	})
}

// RemoveAlias removes a user alias.
func (r *Registry) RemoveAlias(name string) error {
	return r.update(func(idx *index) error {
		if _, ok := idx.aliases.Delete(name); !ok {
			return diag.Errorf(diag.UnknownCommand, name, "%s is not an alias", name)
		}
		return nil
	})
}

// LookupAlias returns the value of a user alias.
func (r *Registry) LookupAlias(name string) (string, bool) {
	return r.load().aliases.Get(name)
}

// Aliases returns the user aliases, ordered by name.
func (r *Registry) Aliases() []Alias {
	var aliases []Alias
	r.load().aliases.Scan(func(name, value string) bool {
		aliases = append(aliases, Alias{name, value})
		return true
	})
	return aliases
}
