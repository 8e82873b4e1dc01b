package complete

import (
	"testing"

	"github.com/spf13/afero"

	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/testutil"
	"src.gsh.sh/pkg/tt"
)

func pathValues(p Path, fs afero.Fs, dirs fsutil.Dirs) func(string) []string {
	return func(seed string) []string {
		comps := p.Complete(&grammar.CompleterInvocation{Seed: seed, Fs: fs, Dirs: dirs})
		var values []string
		for _, c := range comps.Candidates {
			values = append(values, c.Value)
		}
		return values
	}
}

func TestPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.ApplyDirFs(fs, "/src", testutil.Dir{
		"main.go":  "",
		"main.rs":  "",
		"README":   "",
		".git":     testutil.Dir{},
		"internal": testutil.Dir{"x.go": ""},
	})
	dirs := testDirs{"/src", "/home/u"}

	tt.Test(t, tt.Fn("Path.Complete", pathValues(Path{}, fs, dirs)), tt.Table{
		tt.Args("").Rets([]string{"README", "internal/", "main.go", "main.rs"}),
		tt.Args(".").Rets([]string{".git/"}),
		tt.Args("internal/").Rets([]string{"internal/x.go"}),
		tt.Args("/src/internal/").Rets([]string{"/src/internal/x.go"}),
		tt.Args("missing/").Rets([]string{}),
	})
	tt.Test(t, tt.Fn("Path{Pattern}.Complete", pathValues(Path{Pattern: "*.go"}, fs, dirs)), tt.Table{
		tt.Args("").Rets([]string{"internal/", "main.go"}),
	})
	tt.Test(t, tt.Fn("Path{DirsOnly}.Complete", pathValues(Path{DirsOnly: true}, fs, dirs)), tt.Table{
		tt.Args("").Rets([]string{"internal/"}),
	})
}

func TestPath_DirectoriesArePartial(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.ApplyDirFs(fs, "/w", testutil.Dir{"d": testutil.Dir{}, "f": ""})
	comps := Path{}.Complete(&grammar.CompleterInvocation{Fs: fs, Dirs: testDirs{"/w", "/"}})
	for _, c := range comps.Candidates {
		if want := c.Value == "d/"; c.Partial != want {
			t.Errorf("%q: Partial = %v", c.Value, c.Partial)
		}
	}
}

func TestPath_OsFs(t *testing.T) {
	testutil.InTempDir(t)
	testutil.ApplyDir(testutil.Dir{"a": "", "b": testutil.Dir{}})
	tt.Test(t, tt.Fn("Path.Complete", pathValues(Path{}, nil, nil)), tt.Table{
		tt.Args("").Rets([]string{"a", "b/"}),
	})
}
