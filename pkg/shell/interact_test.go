package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"src.gsh.sh/pkg/prog/progtest"
	"src.gsh.sh/pkg/testutil"
)

// Runs the program in a temporary directory, which also holds the default
// configuration and database.
func setupProgram(t *testing.T) string {
	t.Helper()
	testutil.Set(t, &color.NoColor, true)
	dir := testutil.InTempDir(t)
	testutil.Setenv(t, envConfigHome, dir)
	testutil.Setenv(t, envStateHome, dir)
	return dir
}

func TestInteract(t *testing.T) {
	setupProgram(t)
	testutil.ApplyDir(testutil.Dir{"d": testutil.Dir{}})

	o := progtest.Run(t, Program{}, "echo hello\n\ncd d\npwd\necho last")
	require.Equal(t, 0, o.Exit)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.Equal(t, "hello\n"+filepath.Join(wd, "d")+"\nlast\n", o.Stdout)
}

func TestInteract_ShowsErrors(t *testing.T) {
	setupProgram(t)
	o := progtest.Run(t, Program{}, "ehco\necho after\n")
	require.Equal(t, 0, o.Exit)
	require.Equal(t, "after\n", o.Stdout)
	require.Contains(t, o.Stderr, "command not found: ehco (did you mean echo?)")
}

func TestInteract_Completion(t *testing.T) {
	setupProgram(t)
	o := progtest.Run(t, Program{}, "ech\t\necho --no\t\n\t\n")
	require.Equal(t, "echo \necho --no-newline \n"+
		"alias    Define or show aliases\n"+
		"cd       Change the working directory\n"+
		"echo     Write arguments to the standard output\n"+
		"help     Show the commands, or the usage of a command\n"+
		"pwd      Print the working directory\n"+
		"unalias  Remove aliases\n", o.Stdout)
}

func TestProgram_Command(t *testing.T) {
	setupProgram(t)

	o := progtest.Run(t, Program{}, "", "-c", "echo hi && echo there")
	require.Equal(t, progtest.Outcome{Exit: 0, Stdout: "hi\nthere\n"}, o)

	o = progtest.Run(t, Program{}, "", "-c", "ehco")
	require.Equal(t, 2, o.Exit)
	require.Contains(t, o.Stderr, "command not found")

	o = progtest.Run(t, Program{}, "", "-c")
	require.Equal(t, 2, o.Exit)
	require.Contains(t, o.Stderr, "-c requires a line to execute")
}

func TestProgram_Script(t *testing.T) {
	setupProgram(t)
	testutil.ApplyDir(testutil.Dir{
		"ok.gsh":   "echo one\necho two\n",
		"fail.gsh": "echo one\nehco\n",
	})

	o := progtest.Run(t, Program{}, "", "ok.gsh")
	require.Equal(t, progtest.Outcome{Exit: 0, Stdout: "one\ntwo\n"}, o)

	o = progtest.Run(t, Program{}, "", "fail.gsh")
	require.Equal(t, 2, o.Exit)
	require.Equal(t, "one\n", o.Stdout)

	o = progtest.Run(t, Program{}, "", "missing.gsh")
	require.Equal(t, 2, o.Exit)
	require.Contains(t, o.Stderr, "cannot read script")
}

func TestProgram_AliasesPersist(t *testing.T) {
	dir := setupProgram(t)
	db := filepath.Join(dir, "aliases.db")

	o := progtest.Run(t, Program{}, "", "--db", db, "-c", "alias greet='echo persisted'")
	require.Equal(t, 0, o.Exit, o.Stderr)

	o = progtest.Run(t, Program{}, "", "--db", db, "-c", "greet")
	require.Equal(t, progtest.Outcome{Exit: 0, Stdout: "persisted\n"}, o)

	o = progtest.Run(t, Program{}, "", "--db", db, "-c", "unalias greet")
	require.Equal(t, 0, o.Exit, o.Stderr)
	o = progtest.Run(t, Program{}, "", "--db", db, "-c", "greet")
	require.Equal(t, 2, o.Exit)

	// The default database lives in the state directory.
	o = progtest.Run(t, Program{}, "", "-c", "alias x=pwd")
	require.Equal(t, 0, o.Exit, o.Stderr)
	require.FileExists(t, filepath.Join(dir, "gsh", "db.bolt"))
}

func TestProgram_Grammars(t *testing.T) {
	dir := setupProgram(t)
	testutil.ApplyDir(testutil.Dir{
		"greet.yaml": greetYAML,
		"gsh": testutil.Dir{
			"rc.yaml": "grammar-files: [../more.toml]\n",
		},
		"more.toml": "[[commands]]\nname = \"more\"\noutput = \"more!\"\n",
	})

	o := progtest.Run(t, Program{}, "", "--grammar", "greet.yaml", "-c", "greet -n bob; more")
	require.Equal(t, progtest.Outcome{Exit: 0, Stdout: "Hello bob!\nmore!"}, o)

	rc := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(rc, []byte("filter: nope\n"), 0600))
	o = progtest.Run(t, Program{}, "", "--rc", rc, "-c", "echo")
	require.Equal(t, 2, o.Exit)
	require.Contains(t, o.Stderr, `unknown completion filter "nope"`)
}
