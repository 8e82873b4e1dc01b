package fsutil

import (
	"fmt"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// GetHome finds the home directory of a specified user. When given an empty
// string, it finds the home directory of the current user.
func GetHome(uname string) (string, error) {
	if uname == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		return strings.TrimRight(home, pathSeparators), nil
	}
	u, err := user.Lookup(uname)
	if err != nil {
		return "", fmt.Errorf("can't resolve ~%s: %w", uname, err)
	}
	return strings.TrimRight(u.HomeDir, pathSeparators), nil
}

const pathSeparators = "/" + string(filepath.Separator)

// ExpandTilde expands a leading "~" or "~user" in path. Paths not starting
// with "~" are returned unchanged.
func ExpandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	i := strings.IndexAny(path, pathSeparators)
	if i == -1 {
		i = len(path)
	}
	home, err := GetHome(path[1:i])
	if err != nil {
		return "", err
	}
	return home + path[i:], nil
}
