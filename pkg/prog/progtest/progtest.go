// Package progtest runs [prog.Program] instances with captured input and
// output, for tests.
package progtest

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"src.gsh.sh/pkg/prog"
)

// Outcome is the result of running a program.
type Outcome struct {
	Exit           int
	Stdout, Stderr string
}

// Run runs p with the given arguments, feeding it stdin.
func Run(t testing.TB, p prog.Program, stdin string, args ...string) Outcome {
	t.Helper()
	r0, w0 := pipe(t)
	go func() {
		io.WriteString(w0, stdin)
		w0.Close()
	}()
	defer r0.Close()
	return runWithStdin(t, p, r0, args)
}

func runWithStdin(t testing.TB, p prog.Program, stdin *os.File, args []string) Outcome {
	r1, w1 := pipe(t)
	r2, w2 := pipe(t)
	// Drain the pipes while the program runs, so that it never blocks on a
	// full pipe buffer.
	var wg sync.WaitGroup
	var stdout, stderr bytes.Buffer
	wg.Add(2)
	go func() { io.Copy(&stdout, r1); wg.Done() }()
	go func() { io.Copy(&stderr, r2); wg.Done() }()

	exit := prog.Run([3]*os.File{stdin, w1, w2}, append([]string{"gsh"}, args...), p)
	w1.Close()
	w2.Close()
	wg.Wait()
	r1.Close()
	r2.Close()
	return Outcome{exit, stdout.String(), stderr.String()}
}

func pipe(t testing.TB) (*os.File, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	return r, w
}
