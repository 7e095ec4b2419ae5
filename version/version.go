package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information, set at build time via ldflags:
//
//	-X github.com/gymkit/hevymcp/version.Version=v0.3.0
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Name is the program name reported to MCP clients and in the User-Agent
const Name = "hevymcp"

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Release    bool   `json:"release"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Release:    IsRelease(Version),
	}
}

// IsRelease reports whether v is a semantic version without a pre-release
// suffix. Development builds ("dev", "v0.4.0-rc.1", git describe output)
// are not releases.
func IsRelease(v string) bool {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return sv.Prerelease() == ""
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Name, i.Version, i.Short(), i.BuildTime)
}

// Short returns the abbreviated commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// UserAgent is sent with every Hevy API request
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", Name, Version, Get().Platform)
}
