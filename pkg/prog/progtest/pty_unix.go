//go:build unix

package progtest

import (
	"io"
	"testing"

	"github.com/creack/pty"

	"src.gsh.sh/pkg/prog"
)

// RunInPty is like Run, but the program reads stdin from a terminal.
// Lines of stdin are typed one after the other; end it with "\x04" to make
// the program see the end of input.
func RunInPty(t testing.TB, p prog.Program, stdin string, args ...string) Outcome {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skip("cannot open pty:", err)
	}
	defer ptmx.Close()
	// Consume the echo.
	go io.Copy(io.Discard, ptmx)
	if _, err := io.WriteString(ptmx, stdin); err != nil {
		t.Fatal(err)
	}
	outcome := runWithStdin(t, p, tty, args)
	tty.Close()
	return outcome
}
