package testutil

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// TempDir creates a temporary directory for the duration of a test and
// returns its path, with symlinks resolved.
func TempDir(c Cleanuper) string {
	dir, err := os.MkdirTemp("", "gshtest")
	if err != nil {
		panic(err)
	}
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		panic(err)
	}
	c.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// Chdir changes the working directory for the duration of a test.
func Chdir(c Cleanuper, dir string) {
	old, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
	c.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			panic(err)
		}
	})
}

// InTempDir creates a temporary directory and changes into it for the
// duration of a test. It returns the directory.
func InTempDir(c Cleanuper) string {
	dir := TempDir(c)
	Chdir(c, dir)
	return dir
}

// Dir describes the layout of a directory. The values of the map may be
// strings (file content), File values or nested Dir values.
type Dir map[string]any

// File describes a file with explicit permission bits.
type File struct {
	Perm    os.FileMode
	Content string
}

// ApplyDir creates the layout of dir in the working directory.
func ApplyDir(dir Dir) {
	ApplyDirFs(afero.NewOsFs(), ".", dir)
}

// ApplyDirFs creates the layout of dir under root in fs.
func ApplyDirFs(fs afero.Fs, root string, dir Dir) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		panic(err)
	}
	for name, entry := range dir {
		path := filepath.Join(root, name)
		var err error
		switch entry := entry.(type) {
		case string:
			err = afero.WriteFile(fs, path, []byte(entry), 0o644)
		case File:
			err = afero.WriteFile(fs, path, []byte(entry.Content), entry.Perm)
		case Dir:
			ApplyDirFs(fs, path, entry)
		default:
			panic("file is neither string, File nor Dir")
		}
		if err != nil {
			panic(err)
		}
	}
}
