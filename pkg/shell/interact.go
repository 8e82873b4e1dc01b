package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"src.gsh.sh/pkg/sys"
)

// Interact runs an interactive shell session, reading lines from fds[0]
// until the end of input.
//
// A line ending with a tab asks for the completions of the text before the
// tab instead of executing it. When fds[0] is a terminal, long listings of
// completions are only shown after asking, and options with selectors are
// prompted for.
func Interact(fds [3]*os.File, sh *Shell) {
	in := bufio.NewReader(fds[0])
	ed := &minEditor{in, fds[2], sh.Dirs}
	ports := Ports{In: in, Out: fds[1], Err: fds[2]}

	var ask func(int) bool
	if sys.IsATTY(fds[0]) {
		sh.Binder.Prompter = &prompter{in, fds[2], fds[0]}
		ask = func(n int) bool {
			fmt.Fprintf(fds[2], "Display all %d possibilities? (y or n) ", n)
			answer, _ := in.ReadString('\n')
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
		}
	}
	width := 80
	if _, col := sys.WinSize(fds[1]); col > 0 {
		width = col
	}

	for {
		line, err := ed.ReadLine()
		switch {
		case strings.HasSuffix(line, "\t"):
			sh.writeCompletions(fds[1], strings.TrimSuffix(line, "\t"), ask, width)
		case strings.TrimSpace(line) != "":
			sh.Eval(line, ports)
		}
		if err == io.EOF {
			break
		} else if err != nil {
			fmt.Fprintln(fds[2], "Editor error:", err)
			break
		}
	}
}
