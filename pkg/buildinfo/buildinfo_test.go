package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"

	"src.gsh.sh/pkg/prog/progtest"
	"src.gsh.sh/pkg/tt"
)

func TestProgram(t *testing.T) {
	run := func(args ...string) progtest.Outcome {
		return progtest.Run(t, Program{}, "", args...)
	}
	require.Equal(t, progtest.Outcome{Stdout: Value.Version + "\n"}, run("--version"))
	require.Equal(t, progtest.Outcome{Stdout: mustToJSON(Value.Version) + "\n"}, run("--version", "--json"))
	require.Equal(t, progtest.Outcome{Stdout: fmt.Sprintf(
		"Version: %v\nGo version: %v\n", Value.Version, Value.GoVersion)}, run("--buildinfo"))
	require.Equal(t, progtest.Outcome{Stdout: mustToJSON(Value) + "\n"}, run("--buildinfo", "--json"))
	require.Equal(t, progtest.Outcome{Exit: 2, Stderr: "internal error: no suitable subprogram\n"}, run())
}

func TestDevVersion(t *testing.T) {
	vcs := func(modified string) *debug.BuildInfo {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890123456"},
			{Key: "vcs.time", Value: "2022-04-01T23:59:58Z"},
			{Key: "vcs.modified", Value: modified},
		}}
	}
	tt.Test(t, tt.Fn("devVersion", devVersion), tt.Table{
		tt.Args("0.42.0", "", (*debug.BuildInfo)(nil)).Rets("0.42.0-dev.unknown"),
		tt.Args("0.42.0", "", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}).
			Rets("0.42.0-dev.unknown"),
		tt.Args("0.42.0", "", &debug.BuildInfo{Main: debug.Module{Version: "v0.42.0-dev.foobar"}}).
			Rets("0.42.0-dev.foobar"),
		tt.Args("0.42.0", "", vcs("false")).Rets("0.42.0-dev.0.20220401235958-123456789012"),
		tt.Args("0.42.0", "", vcs("true")).Rets("0.42.0-dev.0.20220401235958-123456789012-dirty"),
		tt.Args("0.42.0", "", &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc"}, {Key: "vcs.time", Value: "yesterday"},
		}}).Rets("0.42.0-dev.unknown"),
		tt.Args("0.42.0", "foobar", vcs("true")).Rets("0.42.0-dev.foobar"),
	})
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
