package prog_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"src.gsh.sh/pkg/logutil"
	. "src.gsh.sh/pkg/prog"
	"src.gsh.sh/pkg/prog/progtest"
	"src.gsh.sh/pkg/testutil"
)

func run(t *testing.T, p Program, args ...string) progtest.Outcome {
	return progtest.Run(t, p, "", args...)
}

func TestCommonFlagHandling(t *testing.T) {
	out := run(t, testProgram{}, "--bad-flag")
	require.Equal(t, 2, out.Exit)
	require.Contains(t, out.Stderr, "unknown flag: --bad-flag\nUsage:")

	out = run(t, testProgram{}, "--help")
	require.Equal(t, 0, out.Exit)
	require.Contains(t, out.Stdout, "Usage: gsh [flags] [line...]")
	require.Contains(t, out.Stdout, "--grammar")

	out = run(t, testProgram{}, "-h")
	require.Contains(t, out.Stdout, "Usage: gsh")
}

func TestFlagsReachProgram(t *testing.T) {
	var got *Flags
	p := flagsProgram(func(f *Flags, args []string) {
		got = f
		require.Equal(t, []string{"echo hi", "--db"}, args)
	})
	out := run(t, p, "-c", "--grammar", "a.yaml", "--grammar", "b.toml", "--db", "x.db", "echo hi", "--db")
	require.Equal(t, 0, out.Exit)
	require.True(t, got.CodeInArg)
	require.Equal(t, []string{"a.yaml", "b.toml"}, got.Grammars)
	require.Equal(t, "x.db", got.DB)
}

func TestLogFlags(t *testing.T) {
	dir := testutil.TempDir(t)
	logFile := filepath.Join(dir, "log")
	t.Cleanup(func() { logutil.SetOutput(io.Discard) })
	out := run(t, testProgram{}, "--log", logFile, "--log-level", "nonsense")
	require.Equal(t, 0, out.Exit)
	require.Contains(t, out.Stderr, "Warning:")
	_, err := os.Stat(logFile)
	require.NoError(t, err)
}

func TestNoSuitableSubprogram(t *testing.T) {
	out := run(t, testProgram{notSuitable: true})
	require.Equal(t, 2, out.Exit)
	require.Equal(t, "internal error: no suitable subprogram\n", out.Stderr)
}

func TestComposite(t *testing.T) {
	out := run(t, Composite(testProgram{notSuitable: true}, testProgram{writeOut: "program 2"}))
	require.Equal(t, "program 2", out.Stdout)

	out = run(t, Composite(testProgram{writeOut: "program 1"}, testProgram{writeOut: "program 2"}))
	require.Equal(t, "program 1", out.Stdout)

	out = run(t, Composite(testProgram{notSuitable: true}, testProgram{notSuitable: true}))
	require.Equal(t, 2, out.Exit)
}

func TestBadUsageError(t *testing.T) {
	out := run(t, testProgram{returnErr: BadUsage("lorem ipsum")})
	require.Equal(t, 2, out.Exit)
	require.Contains(t, out.Stderr, "lorem ipsum\nUsage:")
}

func TestExitError(t *testing.T) {
	require.Equal(t, 3, run(t, testProgram{returnErr: Exit(3)}).Exit)
	require.Equal(t, 0, run(t, testProgram{returnErr: Exit(0)}).Exit)
}

type testProgram struct {
	notSuitable bool
	writeOut    string
	returnErr   error
}

func (p testProgram) Run(fds [3]*os.File, _ *Flags, args []string) error {
	if p.notSuitable {
		return ErrNotSuitable
	}
	fds[1].WriteString(p.writeOut)
	return p.returnErr
}

type flagsProgram func(*Flags, []string)

func (p flagsProgram) Run(_ [3]*os.File, f *Flags, args []string) error {
	p(f, args)
	return nil
}
