package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dirs provides the working and home directories used to resolve paths.
type Dirs interface {
	Cwd() string
	Home() (string, error)
}

// WorkDir is a Dirs whose working directory can be changed without changing
// the working directory of the process. The zero value uses the process's
// working directory.
type WorkDir struct {
	mu  sync.RWMutex
	cwd string
}

// NewWorkDir returns a WorkDir starting in dir.
func NewWorkDir(dir string) *WorkDir { return &WorkDir{cwd: dir} }

// Cwd returns the working directory.
func (d *WorkDir) Cwd() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	return d.cwd
}

// Home returns the home directory of the current user.
func (d *WorkDir) Home() (string, error) { return GetHome("") }

// Chdir changes the working directory. The path is resolved like Resolve
// does; checking that it exists is up to the caller.
func (d *WorkDir) Chdir(path string) (string, error) {
	abs, err := Resolve(d, path)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cwd = abs
	return abs, nil
}

// Resolve expands a leading tilde in path and makes it absolute relative to
// the working directory of dirs. A bare "~" refers to the home directory of
// dirs; "~user" is looked up.
func Resolve(dirs Dirs, path string) (string, error) {
	var err error
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := dirs.Home()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	} else if path, err = ExpandTilde(path); err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dirs.Cwd(), path)
	}
	return filepath.Clean(path), nil
}
