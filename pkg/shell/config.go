package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"src.gsh.sh/pkg/fsutil"
)

// Config keeps the settings of the shell.
type Config struct {
	// Grammar files to load commands from. Relative paths are relative to
	// the configuration file.
	GrammarFiles []string `yaml:"grammar-files" toml:"grammar-files"`
	// Listings with more candidates than this are only shown after asking.
	CompletionQueryItems int `yaml:"completion-query-items" toml:"completion-query-items"`
	// Completion filter, "prefix" or "fuzzy".
	Filter string `yaml:"filter" toml:"filter"`
	// Path of the alias database.
	DB       string `yaml:"db" toml:"db"`
	LogLevel string `yaml:"log-level" toml:"log-level"`
}

// DefaultConfig returns the configuration used when there is no
// configuration file.
func DefaultConfig() *Config {
	return &Config{CompletionQueryItems: 100, Filter: "prefix"}
}

// LoadConfig reads the configuration file at path. The format is chosen by
// the extension: ".toml" for TOML, YAML otherwise. Settings missing from the
// file keep their defaults; a missing file gives the default configuration.
func LoadConfig(afs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown setting %s", path, undecoded[0])
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.GrammarFiles {
		if p, err = fsutil.ExpandTilde(p); err != nil {
			return nil, err
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		cfg.GrammarFiles[i] = p
	}
	if cfg.DB != "" {
		if cfg.DB, err = fsutil.ExpandTilde(cfg.DB); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
