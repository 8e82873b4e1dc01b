// Package shell is the entry point for the terminal interface of gsh.
//
// A Shell executes lines of commands. Lines are split at control operators
// into pipelines of commands, and each command is resolved in the registry,
// parsed against its grammar, bound into its target and run.
package shell

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"src.gsh.sh/pkg/bind"
	"src.gsh.sh/pkg/complete"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/gramfile"
	"src.gsh.sh/pkg/logutil"
	"src.gsh.sh/pkg/prog"
	"src.gsh.sh/pkg/registry"
	"src.gsh.sh/pkg/store"
	"src.gsh.sh/pkg/token"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	sh, err := Setup(afero.NewOsFs(), f, fds[2])
	if err != nil {
		return err
	}
	defer sh.Close()
	ports := Ports{In: fds[0], Out: fds[1], Err: fds[2]}

	switch {
	case f.CodeInArg:
		if len(args) == 0 {
			return prog.BadUsage("-c requires a line to execute")
		}
		if sh.Eval(args[0], ports) != nil {
			return prog.Exit(2)
		}
		return nil
	case len(args) > 0:
		return prog.Exit(sh.Script(args[0], ports))
	}
	Interact(fds, sh)
	return nil
}

// Setup builds the Shell of a run of gsh: the configuration file named by
// the flags, or the default one, is loaded and the flags are applied on top
// of it. Warnings are written to w.
func Setup(fs afero.Fs, f *prog.Flags, w io.Writer) (*Shell, error) {
	return New(loadConfig(fs, f, w), fs, &fsutil.WorkDir{})
}

// Loads the configuration file named by the flags, or the default one, and
// applies the flags on top of it. Problems are reported to w.
func loadConfig(fs afero.Fs, f *prog.Flags, w io.Writer) *Config {
	rc := f.RC
	if rc == "" {
		var err error
		if rc, err = rcPath(); err != nil {
			fmt.Fprintln(w, "Warning:", err)
		}
	}
	cfg := DefaultConfig()
	if rc != "" {
		loaded, err := LoadConfig(fs, rc)
		if err != nil {
			fmt.Fprintln(w, "Warning:", err)
		} else {
			cfg = loaded
		}
	}
	cfg.GrammarFiles = append(cfg.GrammarFiles, f.Grammars...)
	if f.DB != "" {
		cfg.DB = f.DB
	}
	if cfg.DB == "" {
		db, err := dbPath()
		if err != nil {
			fmt.Fprintln(w, "Warning:", err)
			fmt.Fprintln(w, "Aliases will not be saved.")
		}
		cfg.DB = db
	}
	if cfg.LogLevel != "" && f.LogLevel == "" {
		if err := logutil.SetLevel(cfg.LogLevel); err != nil {
			fmt.Fprintln(w, "Warning:", err)
		}
	}
	return cfg
}

// Shell executes lines of commands.
type Shell struct {
	Registry  *registry.Registry
	Grammars  *gramfile.Set
	Binder    *bind.Binder
	Completer *complete.Engine
	Operators *token.Table
	Dirs      *fsutil.WorkDir
	Fs        afero.Fs
	// May be nil, in which case aliases are not saved.
	Store  *store.Store
	Config *Config
}

// New builds a Shell with the builtin commands, the commands of the grammar
// files named by cfg and the aliases stored in cfg.DB. Files are read from
// fs.
func New(cfg *Config, fs afero.Fs, dirs *fsutil.WorkDir) (*Shell, error) {
	filter, ok := complete.Filterers[cfg.Filter]
	if !ok {
		return nil, fmt.Errorf("unknown completion filter %q", cfg.Filter)
	}
	grammars, err := gramfile.Load(fs, cfg.GrammarFiles...)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	if err := registerBuiltins(reg); err != nil {
		return nil, err
	}
	for _, m := range grammars.Commands() {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	ops := token.DefaultTable()
	sh := &Shell{
		Registry: reg,
		Grammars: grammars,
		Binder:   bind.New(dirs, nil),
		Completer: &complete.Engine{
			Registry: reg, Operators: ops, Dirs: dirs, Fs: fs, Filterer: filter},
		Operators: ops,
		Dirs:      dirs,
		Fs:        fs,
		Config:    cfg,
	}
	if cfg.DB != "" {
		sh.openStore(cfg.DB)
	}
	return sh, nil
}

// Opens the alias store and loads its aliases. Failures are logged; the
// shell works without a store.
func (sh *Shell) openStore(path string) {
	st, err := store.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("cannot open alias store")
		return
	}
	n, err := st.LoadInto(sh.Registry)
	if err != nil {
		logger.Warn().Err(err).Msg("cannot load aliases")
	}
	logger.Debug().Int("aliases", n).Msg("loaded aliases")
	sh.Store = st
}

// Close releases the resources held by the shell.
func (sh *Shell) Close() error {
	if sh.Store != nil {
		return sh.Store.Close()
	}
	return nil
}
