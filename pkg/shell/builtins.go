package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"src.gsh.sh/pkg/bind"
	"src.gsh.sh/pkg/complete"
	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/registry"
	"src.gsh.sh/pkg/token"
)

// Builds the builtin commands and registers them in reg. Their completers
// consult reg.
func registerBuiltins(reg *registry.Registry) error {
	aliasNames := grammar.CompleterFunc(func(*grammar.CompleterInvocation) grammar.Completions {
		var names []string
		for _, a := range reg.Aliases() {
			names = append(names, a.Name)
		}
		return grammar.Values(names...)
	})
	commandPath := grammar.CompleterFunc(func(inv *grammar.CompleterInvocation) grammar.Completions {
		var words []string
		if inv.Context != nil {
			words = inv.Context.Arguments()
		}
		if len(words) == 0 {
			return grammar.Values(reg.Complete("")...)
		}
		m, n, err := reg.ResolvePath(words)
		if err != nil || n < len(words) {
			return grammar.Completions{}
		}
		var names []string
		for _, child := range m.Children() {
			if child.IsActive(grammar.NoContext) {
				names = append(names, child.Name())
			}
		}
		return grammar.Values(names...)
	})

	defs := []grammar.Def{
		{
			Name:        "alias",
			Description: "Define or show aliases",
			Arguments: &grammar.ArgumentSpec{
				ValueName:   "name=value",
				Description: "Aliases to define; a name alone shows its alias",
				Completer:   aliasNames,
			},
			Target: &aliasCmd{},
		},
		{
			Name:        "unalias",
			Description: "Remove aliases",
			Arguments: &grammar.ArgumentSpec{
				ValueName: "name", Required: true, Completer: aliasNames,
			},
			Target: &unaliasCmd{},
		},
		{
			Name:        "help",
			Description: "Show the commands, or the usage of a command",
			Arguments: &grammar.ArgumentSpec{
				ValueName: "command", Completer: commandPath,
			},
			Target: &helpCmd{},
		},
		{
			Name:        "cd",
			Description: "Change the working directory",
			Argument: &grammar.ArgumentSpec{
				ValueName:   "dir",
				Description: "The new working directory; the home directory when omitted",
				Completer:   complete.Path{DirsOnly: true},
			},
			Target: &cdCmd{},
		},
		{
			Name:        "pwd",
			Description: "Print the working directory",
			Target:      &pwdCmd{},
		},
		{
			Name:        "echo",
			Description: "Write arguments to the standard output",
			Options: []grammar.OptionSpec{
				{Name: "no-newline", Short: 'n', Description: "Do not write the trailing newline"},
			},
			Arguments: &grammar.ArgumentSpec{ValueName: "word"},
			Target:    &echoCmd{},
		},
	}
	for _, def := range defs {
		def.GenerateHelp = true
		m, err := grammar.New(def)
		if err != nil {
			return err
		}
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

type aliasCmd struct{ args []string }

func (c *aliasCmd) Fields() grammar.Fields {
	return grammar.Fields{"args": bind.List(&c.args)}
}

func (c *aliasCmd) Run(call *Call) error {
	reg := call.Shell.Registry
	if len(c.args) == 0 {
		for _, a := range reg.Aliases() {
			writeAlias(call.Out, a.Name, a.Value)
		}
		return nil
	}
	var errs []error
	for _, arg := range c.args {
		name, value, define := strings.Cut(arg, "=")
		if !define {
			if value, ok := reg.LookupAlias(name); ok {
				writeAlias(call.Out, name, value)
			} else {
				errs = append(errs, diag.Errorf(diag.UnknownCommand, name, "%s is not an alias", name))
			}
			continue
		}
		if err := reg.AddAlias(name, value); err != nil {
			errs = append(errs, err)
			continue
		}
		if st := call.Shell.Store; st != nil {
			if err := st.PutAlias(name, value); err != nil {
				errs = append(errs, fmt.Errorf("cannot save alias %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func writeAlias(w io.Writer, name, value string) {
	fmt.Fprintf(w, "alias %s=%s\n", name, token.Quote(value))
}

type unaliasCmd struct{ args []string }

func (c *unaliasCmd) Fields() grammar.Fields {
	return grammar.Fields{"args": bind.List(&c.args)}
}

func (c *unaliasCmd) Run(call *Call) error {
	var errs []error
	for _, name := range c.args {
		if err := call.Shell.Registry.RemoveAlias(name); err != nil {
			errs = append(errs, err)
			continue
		}
		if st := call.Shell.Store; st != nil {
			if err := st.DelAlias(name); err != nil {
				errs = append(errs, fmt.Errorf("cannot forget alias %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

type helpCmd struct{ args []string }

func (c *helpCmd) Fields() grammar.Fields {
	return grammar.Fields{"args": bind.List(&c.args)}
}

func (c *helpCmd) Run(call *Call) error {
	reg := call.Shell.Registry
	if len(c.args) == 0 {
		var rows [][2]string
		for _, m := range reg.Commands() {
			if m.IsActive(grammar.NoContext) {
				rows = append(rows, [2]string{m.Name(), m.Description()})
			}
		}
		writeTable(call.Out, "Commands:", rows)
		rows = nil
		for _, a := range reg.Aliases() {
			rows = append(rows, [2]string{a.Name, "alias for " + a.Value})
		}
		if len(rows) > 0 {
			fmt.Fprintln(call.Out)
			writeTable(call.Out, "Aliases:", rows)
		}
		return nil
	}
	m, n, err := reg.ResolvePath(c.args)
	if err != nil {
		return err
	}
	if n < len(c.args) {
		return diag.Errorf(diag.ChildNotFound, c.args[n], "%s has no sub-command %s", m.Path(), c.args[n])
	}
	_, err = io.WriteString(call.Out, m.Help())
	return err
}

func writeTable(w io.Writer, title string, rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	fmt.Fprintln(w, title)
	for _, row := range rows {
		if row[1] == "" {
			fmt.Fprintf(w, "  %s\n", row[0])
		} else {
			fmt.Fprintf(w, "  %-*s  %s\n", width, row[0], row[1])
		}
	}
}

type cdCmd struct{ dir string }

func (c *cdCmd) Fields() grammar.Fields {
	return grammar.Fields{"args": bind.Var(&c.dir)}
}

func (c *cdCmd) Run(call *Call) error {
	dirs := call.Shell.Dirs
	dir := c.dir
	if dir == "" {
		home, err := dirs.Home()
		if err != nil {
			return err
		}
		dir = home
	}
	abs, err := fsutil.Resolve(dirs, dir)
	if err != nil {
		return err
	}
	isDir, err := afero.IsDir(call.Shell.Fs, abs)
	if err != nil {
		return err
	}
	if !isDir {
		return fmt.Errorf("%s is not a directory", dir)
	}
	_, err = dirs.Chdir(abs)
	return err
}

type pwdCmd struct{}

func (pwdCmd) Fields() grammar.Fields { return grammar.Fields{} }

func (pwdCmd) Run(call *Call) error {
	_, err := fmt.Fprintln(call.Out, call.Shell.Dirs.Cwd())
	return err
}

type echoCmd struct {
	noNewline bool
	args      []string
}

func (c *echoCmd) Fields() grammar.Fields {
	return grammar.Fields{
		"no-newline": bind.Var(&c.noNewline),
		"args":       bind.List(&c.args),
	}
}

func (c *echoCmd) Run(call *Call) error {
	s := strings.Join(c.args, " ")
	if !c.noNewline {
		s += "\n"
	}
	_, err := io.WriteString(call.Out, s)
	return err
}
