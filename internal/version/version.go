// Package version reports build metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/soyeahso/agentchat/internal/version.Version=1.0.0 ...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Current returns the ldflags values, filling a missing commit or date from
// the VCS stamp the Go toolchain embeds.
func Current() Build {
	b := Build{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	info, ok := readBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == "unknown":
			b.Commit = s.Value
		case s.Key == "vcs.time" && b.Date == "unknown":
			b.Date = s.Value
		}
	}
	return b
}

// Info is the one-line form printed by `agentchat version`.
func Info() string {
	b := Current()
	return fmt.Sprintf("agentchat %s (commit: %s, built: %s, %s/%s)",
		b.Version, short(b.Commit), b.Date, b.OS, b.Arch)
}

// UserAgent is sent on outbound requests to public data APIs.
func UserAgent() string {
	return "agentchat/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
