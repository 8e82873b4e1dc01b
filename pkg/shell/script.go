package shell

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"src.gsh.sh/pkg/fsutil"
)

// Script executes the lines of a file in order and returns the exit status:
// 0 if the last line succeeded and 2 otherwise. Blank lines and lines
// starting with "#" are skipped.
func (sh *Shell) Script(path string, ports Ports) int {
	abs, err := fsutil.Resolve(sh.Dirs, path)
	if err != nil {
		fmt.Fprintf(ports.Err, "cannot get full path of script %q: %v\n", path, err)
		return 2
	}
	code, err := readFileUTF8(sh.Fs, abs)
	if err != nil {
		fmt.Fprintf(ports.Err, "cannot read script %q: %v\n", abs, err)
		return 2
	}
	var status error
	for _, line := range strings.Split(code, "\n") {
		line = chopLineEnding(line)
		if trimmed := strings.TrimSpace(line); trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		status = sh.Eval(line, ports)
	}
	if status != nil {
		return 2
	}
	return 0
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fs afero.Fs, fname string) (string, error) {
	bytes, err := afero.ReadFile(fs, fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}
