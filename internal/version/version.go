// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/tapsync/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/tapsync/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/tapsync/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "runtime/debug"

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// Info is the version reported by the status endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info. When Commit was not set via ldflags it falls
// back to the VCS revision recorded by the Go toolchain.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Commit != "unknown" {
		return info
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			info.Commit = s.Value
			if len(info.Commit) > 7 {
				info.Commit = info.Commit[:7]
			}
		}
	}
	return info
}
