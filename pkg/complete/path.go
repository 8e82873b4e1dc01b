package complete

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
)

var pathSeparator = string(filepath.Separator)

// Path is a grammar.Completer of file names.
type Path struct {
	// Doublestar pattern that the names of files, but not directories, must
	// match. Empty means any name.
	Pattern string
	// List directories only.
	DirsOnly bool
}

var _ grammar.Completer = Path{}

// Complete lists the entries of the directory part of the seed. Directories
// are suffixed with the path separator.
func (p Path) Complete(inv *grammar.CompleterInvocation) grammar.Completions {
	items, err := listPaths(inv.Fs, inv.Dirs, inv.Seed, p)
	if err != nil {
		logger.Debug().Err(err).Str("seed", inv.Seed).Msg("cannot list paths")
	}
	cands := make([]grammar.Candidate, len(items))
	for i, item := range items {
		cands[i] = grammar.Candidate{Value: item.Value, Partial: item.Partial}
	}
	return grammar.Completions{Candidates: cands}
}

func (c *completion) paths(p Path) {
	items, err := listPaths(c.e.Fs, c.e.Dirs, c.seed, p)
	if err != nil {
		logger.Debug().Err(err).Str("seed", c.seed).Msg("cannot list paths")
	}
	c.items = append(c.items, items...)
}

// Lists the candidates completing seed. A seed of "~" or "~user" completes to
// the home directory itself; otherwise the directory part of the seed, with
// "~" expanded, is listed and its entries are prefixed with the directory
// part as typed.
func listPaths(fs afero.Fs, dirs fsutil.Dirs, seed string, p Path) ([]Item, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dirs == nil {
		dirs = &fsutil.WorkDir{}
	}
	if strings.HasPrefix(seed, "~") && !strings.ContainsAny(seed, "/"+pathSeparator) {
		if _, err := fsutil.Resolve(dirs, seed); err != nil {
			return nil, err
		}
		return []Item{{Value: seed + pathSeparator, Partial: true}}, nil
	}

	dir, prefix := filepath.Split(seed)
	dirToRead := dir
	if dirToRead == "" {
		dirToRead = "."
	}
	abs, err := fsutil.Resolve(dirs, dirToRead)
	if err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(fs, abs)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, info := range infos {
		name := info.Name()
		// Show dot files iff the file part of the seed starts with a dot.
		if dotfile(prefix) != dotfile(name) {
			continue
		}
		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			if stat, err := fs.Stat(filepath.Join(abs, name)); err == nil && stat.IsDir() {
				isDir = true
			}
		}
		switch {
		case isDir:
			items = append(items, Item{Value: dir + name + pathSeparator, Partial: true})
		case p.DirsOnly:
		case p.Pattern != "" && !matchPattern(p.Pattern, name):
		default:
			items = append(items, Item{Value: dir + name})
		}
	}
	return items, nil
}

func matchPattern(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		logger.Debug().Err(err).Str("pattern", pattern).Msg("bad pattern")
	}
	return ok
}

func dotfile(fname string) bool {
	return strings.HasPrefix(fname, ".")
}
