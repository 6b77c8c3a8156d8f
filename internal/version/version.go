// Package version provides build-time version information for skilltheme.
//
// Version, Commit and Date are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/skilltree/skilltheme/internal/version.Version=x.y.z \
//	                   -X github.com/skilltree/skilltheme/internal/version.Commit=$(git rev-parse HEAD) \
//	                   -X github.com/skilltree/skilltheme/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built without ldflags fall back to the VCS stamp the Go
// toolchain embeds.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// ApplicationName is the canonical name of this application.
const ApplicationName = "skilltheme"

const shortSHALen = 8

// Info contains structured version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo returns the version information of the running binary.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildSettings(&info, bi.Settings)
	}
	return info
}

// applyBuildSettings fills fields ldflags left unset from the vcs.* settings.
func applyBuildSettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// Platform returns os/arch.
func (i Info) Platform() string {
	return i.OS + "/" + i.Arch
}

// ShortCommit returns the abbreviated commit, marked with "*" for builds
// from a modified tree, or "" when the commit is unknown.
func (i Info) ShortCommit() string {
	if i.Commit == "unknown" || len(i.Commit) < shortSHALen {
		return ""
	}
	sha := i.Commit[:shortSHALen]
	if i.Modified {
		sha += "*"
	}
	return sha
}

// String returns a human-readable version string.
func (i Info) String() string {
	sha := i.ShortCommit()
	if sha == "" {
		return fmt.Sprintf("%s version %s (%s, %s)", ApplicationName, i.Version, i.GoVersion, i.Platform())
	}
	return fmt.Sprintf("%s version %s (commit: %s, built: %s, %s, %s)",
		ApplicationName, i.Version, sha, i.Date, i.GoVersion, i.Platform())
}

// String returns the human-readable version of the running binary.
func String() string {
	return GetInfo().String()
}

// Short returns a short version string suitable for CLI --version output.
// Cobra prefixes it with the command name.
func Short() string {
	if sha := GetInfo().ShortCommit(); sha != "" {
		return fmt.Sprintf("%s (%s)", Version, sha)
	}
	return Version
}

// JSON returns the version information as indented JSON.
func JSON() string {
	b, err := json.MarshalIndent(GetInfo(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
