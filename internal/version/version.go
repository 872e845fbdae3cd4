// Package version provides version information for the treeline pipeline.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const unknownValue = "unknown"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Info returns detailed build information, filling in from the embedded
// module info when ldflags were not set.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == unknownValue {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if info.BuildDate == unknownValue {
					info.BuildDate = setting.Value
				}
			}
		}
	}

	return info
}

// String renders the build information for CLI output.
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "treeline %s\n", b.Version)
	fmt.Fprintf(&sb, "  build date: %s\n", b.BuildDate)
	fmt.Fprintf(&sb, "  git commit: %s\n", shortCommit(b.GitCommit))
	fmt.Fprintf(&sb, "  go version: %s\n", b.GoVersion)
	return sb.String()
}

func shortCommit(commit string) string {
	const commitHashLength = 7
	if len(commit) > commitHashLength {
		return commit[:commitHashLength]
	}
	return commit
}
