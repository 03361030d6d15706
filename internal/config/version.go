package config

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/bobmcallan/stock-compare/internal/config.Version=..." at build time.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	Commit    string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Info returns the build metadata. When no commit was injected it falls back
// to the VCS revision the Go toolchain stamps into module builds.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Build:     Build,
		Commit:    GitCommit,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "unknown" {
		if rev := vcsRevision(); rev != "" {
			info.Commit = rev
		}
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

// String formats the info for -version output.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s, %s)", b.Version, b.Build, b.Commit, b.GoVersion)
}

// UserAgent returns the User-Agent sent to upstream market-data APIs.
func UserAgent() string {
	return "stock-compare/" + Version
}
