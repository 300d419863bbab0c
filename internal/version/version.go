// Package version carries build metadata for the backoffice binary.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at link time, e.g.
//
//	go build -ldflags "-X github.com/soyeahso/backoffice/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/backoffice/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build is the metadata printed by "backoffice version".
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Current returns the running binary's build metadata.
func Current() Build {
	return Build{Version: Version, Commit: Commit, Date: Date, OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func (b Build) String() string {
	return fmt.Sprintf("backoffice %s (commit: %s, built: %s, %s/%s)",
		b.Version, short(b.Commit), b.Date, b.OS, b.Arch)
}

// Info is Current formatted on one line.
func Info() string { return Current().String() }

// Short is the version plus an abbreviated commit when one is known.
func Short() string {
	if Commit == "unknown" {
		return Version
	}
	return Version + "+" + short(Commit)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
