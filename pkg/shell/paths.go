package shell

import (
	"os"
	"path/filepath"

	"src.gsh.sh/pkg/fsutil"
)

// Environment variables naming base directories.
const (
	envConfigHome = "XDG_CONFIG_HOME"
	envStateHome  = "XDG_STATE_HOME"
)

// Returns the path of the default configuration file.
func rcPath() (string, error) {
	dir, err := baseDir(envConfigHome, ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gsh", "rc.yaml"), nil
}

// Returns the path of the default alias database, creating its directory.
func dbPath() (string, error) {
	dir, err := baseDir(envStateHome, filepath.Join(".local", "state"))
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "gsh")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "db.bolt"), nil
}

// Returns the directory named by the environment variable, or the given
// directory under the home directory when it is unset.
func baseDir(env, underHome string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home, err := fsutil.GetHome("")
	if err != nil {
		return "", err
	}
	return filepath.Join(home, underHome), nil
}
