// Package version holds the CLI version string. Default is "dev"; release
// builds set it via: go build -ldflags "-X revise/cli/internal/version.Version=v1.0.0"
package version

import "runtime/debug"

// Version is the revise CLI version. Set at build time for releases.
var Version = "dev"

// Commit is the short git commit hash. Set at build time via ldflags; when
// empty, String falls back to the vcs.revision recorded by the Go toolchain.
var Commit = ""

// String returns the version string for display (--version, `revise version`).
// For dev builds with a known commit it returns "dev (abc1234)"; otherwise Version.
func String() string {
	if Version != "dev" {
		return Version
	}
	commit := Commit
	if commit == "" {
		commit = buildRevision()
	}
	if commit == "" {
		return Version
	}
	return Version + " (" + commit + ")"
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
