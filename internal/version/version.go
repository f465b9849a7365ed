// Package version carries the build identity of the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped through -ldflags at release time. A plain `go build` leaves the
// commit and date empty, and GetInfo falls back to the VCS metadata the
// toolchain embeds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is a resolved snapshot of the build identity.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// GetInfo resolves the build identity, filling unstamped fields from the
// binary's embedded VCS metadata where available.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// String renders the one-line identity shown by the version command.
func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("Errand Mate %s (%s) built %s with %s for %s",
		i.Version, commit, i.Date, i.GoVersion, i.Platform)
}

// Short returns the bare version number.
func (i Info) Short() string {
	return i.Version
}
