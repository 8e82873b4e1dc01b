// Package gramfile builds commands from grammar files written in YAML or
// TOML.
//
// A grammar file lists commands:
//
//	commands:
//	  - name: greet
//	    description: Say hello
//	    output: "Hello {{.name}}!\n"
//	    options:
//	      - name: name
//	        short: n
//	        value: true
//	        default: [world]
//
// The values of a command's options and arguments are bound into a record
// and rendered with the command's output template when it runs.
package gramfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[gramfile] ")

// File is the content of a grammar file.
type File struct {
	Commands []Command `yaml:"commands" toml:"commands"`
}

// Command declares a command.
type Command struct {
	Name        string   `yaml:"name" toml:"name"`
	Aliases     []string `yaml:"aliases" toml:"aliases"`
	Description string   `yaml:"description" toml:"description"`
	// Do not add -h/--help.
	NoHelp bool `yaml:"no-help" toml:"no-help"`
	// The command is only available when this environment variable is set.
	RequiresEnv string    `yaml:"requires-env" toml:"requires-env"`
	Options     []Option  `yaml:"options" toml:"options"`
	Arguments   *Argument `yaml:"arguments" toml:"arguments"`
	// Template rendered when the command runs.
	Output   string    `yaml:"output" toml:"output"`
	Children []Command `yaml:"children" toml:"children"`
}

// Option declares an option.
type Option struct {
	Name        string `yaml:"name" toml:"name"`
	Short       string `yaml:"short" toml:"short"`
	Description string `yaml:"description" toml:"description"`
	ValueName   string `yaml:"value-name" toml:"value-name"`
	Required    bool   `yaml:"required" toml:"required"`
	// Whether the option takes a value.
	Value bool `yaml:"value" toml:"value"`
	// "list" or "group"; empty for a single value.
	Multiple  string   `yaml:"multiple" toml:"multiple"`
	Separator string   `yaml:"separator" toml:"separator"`
	Default   []string `yaml:"default" toml:"default"`
	Type      string   `yaml:"type" toml:"type"`
	// Regular expression that string values must match.
	Match string `yaml:"match" toml:"match"`
	// The option is only visible once this other option is given.
	Requires   string `yaml:"requires" toml:"requires"`
	Completion `yaml:",inline"`
	Prompt     *Prompt `yaml:"prompt" toml:"prompt"`
}

// Argument declares the positional arguments of a command.
type Argument struct {
	Description string   `yaml:"description" toml:"description"`
	ValueName   string   `yaml:"value-name" toml:"value-name"`
	Required    bool     `yaml:"required" toml:"required"`
	Multiple    bool     `yaml:"multiple" toml:"multiple"`
	Default     []string `yaml:"default" toml:"default"`
	Type        string   `yaml:"type" toml:"type"`
	Match       string   `yaml:"match" toml:"match"`
	Completion  `yaml:",inline"`
}

// Completion selects the completer of an option or argument.
type Completion struct {
	// "path", "dirs", "values" or "bool".
	Completer string `yaml:"completer" toml:"completer"`
	// Candidates of the "values" completer.
	Values []string `yaml:"values" toml:"values"`
	// Doublestar pattern file names must match, for the "path" completer.
	Pattern string `yaml:"pattern" toml:"pattern"`
}

// Prompt makes an option ask for its value when it is not given.
type Prompt struct {
	Text    string   `yaml:"text" toml:"text"`
	Choices []string `yaml:"choices" toml:"choices"`
	Secret  bool     `yaml:"secret" toml:"secret"`
}

// Parse decodes a grammar file. The format is chosen by the extension of
// name: ".toml" for TOML, YAML otherwise. Unknown keys are errors.
func Parse(name string, data []byte) (*File, error) {
	var f File
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
		if err != nil {
			return nil, diag.Wrap(diag.GrammarDefinition, name, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, diag.Errorf(diag.GrammarDefinition, name,
				"%s: unknown key %s", name, undecoded[0])
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, diag.Wrap(diag.GrammarDefinition, name, err)
		}
	}
	return &f, nil
}

// Load reads and builds the grammar files at the given paths, in order.
func Load(fs afero.Fs, paths ...string) (*Set, error) {
	set := NewSet()
	for _, path := range paths {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, err
		}
		f, err := Parse(path, data)
		if err != nil {
			return nil, err
		}
		if err := set.Add(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		logger.Debug().Str("path", path).Int("commands", len(f.Commands)).Msg("loaded grammar file")
	}
	return set, nil
}
