package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"src.gsh.sh/pkg/fsutil"
)

// A line reader that shows the working directory as prompt.
type minEditor struct {
	in   *bufio.Reader
	out  io.Writer
	dirs fsutil.Dirs
}

// Reads a line without its line ending. At the end of input it returns the
// text of an unterminated last line along with io.EOF.
func (ed *minEditor) ReadLine() (string, error) {
	fmt.Fprintf(ed.out, "%s> ", fsutil.TildeAbbr(ed.dirs.Cwd()))
	line, err := ed.in.ReadString('\n')
	return chopLineEnding(line), err
}

func chopLineEnding(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
