// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X src.gsh.sh/pkg/buildinfo.Var=value" to "go build" or
// "go install".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"src.gsh.sh/pkg/prog"
)

// VersionBase is the version of the next release, or of the release when the
// build is from a release commit.
const VersionBase = "0.3.0"

// VCSOverride may be set during compilation to describe the commit being
// built, for builds without VCS information.
var VCSOverride string

// Type contains all the build information fields.
type Type struct {
	Version   string `json:"version"`
	GoVersion string `json:"goversion"`
}

// Value contains all the build information.
var Value = Type{
	Version:   devVersion(VersionBase, VCSOverride, readBuildInfo()),
	GoVersion: runtime.Version(),
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

func devVersion(next, vcsOverride string, info *debug.BuildInfo) string {
	if vcsOverride != "" {
		return next + "-dev." + vcsOverride
	}
	fallback := next + "-dev.unknown"
	if info == nil {
		return fallback
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return strings.TrimPrefix(v, "v")
	}
	var revision, commitTime string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			commitTime = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" || commitTime == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, commitTime)
	if err != nil {
		return fallback
	}
	v := fmt.Sprintf("%s-dev.0.%s-%s", next,
		t.UTC().Format("20060102150405"), revision[:min(12, len(revision))])
	if modified {
		v += "-dirty"
	}
	return v
}

// Program is the buildinfo subprogram.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, _ []string) error {
	switch {
	case f.BuildInfo && f.JSON:
		return json.NewEncoder(fds[1]).Encode(Value)
	case f.BuildInfo:
		fmt.Fprintln(fds[1], "Version:", Value.Version)
		fmt.Fprintln(fds[1], "Go version:", Value.GoVersion)
	case f.Version && f.JSON:
		return json.NewEncoder(fds[1]).Encode(Value.Version)
	case f.Version:
		fmt.Fprintln(fds[1], Value.Version)
	default:
		return prog.ErrNotSuitable
	}
	return nil
}
