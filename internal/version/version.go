// Package version reports the build identity of the mcparam binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/mcparam/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/mcparam/internal/version.Commit=abc1234"
//
// Unset values are filled from the VCS stamp in the build info, then fall
// back to "dev".
var (
	// Version is the semantic version of the release
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
	// BuildTime is the commit or build time, RFC 3339
	BuildTime = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info.Settings)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fill completes the unset variables from VCS build settings
func fill(settings []debug.BuildSetting) {
	var revision, vcsTime string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if Commit == "" && revision != "" {
		Commit = revision
		if len(Commit) > 7 {
			Commit = Commit[:7]
		}
		if dirty {
			Commit += "-dirty"
		}
	}
	if BuildTime == "" {
		BuildTime = vcsTime
	}
	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = "dev-" + t.UTC().Format("20060102")
		}
	}
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Details returns the lines printed by the version subcommands
func Details(binary string) []string {
	lines := []string{
		fmt.Sprintf("%s %s", binary, Version),
		"commit:  " + Commit,
	}
	if BuildTime != "" {
		lines = append(lines, "built:   "+BuildTime)
	}
	return append(lines, fmt.Sprintf("go:      %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH))
}
