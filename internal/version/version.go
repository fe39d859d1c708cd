// Package version reports assessrec build metadata.
//
// Release builds set Version, Commit and Date via ldflags. Other builds fall
// back to the module version and VCS stamps recorded by the Go toolchain.
package version

import (
	"runtime/debug"
	"sync"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the resolved build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
}

var (
	resolveOnce sync.Once
	resolved    Info
)

// Get returns ldflags values, filling the defaults from debug.ReadBuildInfo.
func Get() Info {
	resolveOnce.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		resolved = resolve(Info{Version: Version, Commit: Commit, Date: Date}, bi)
	})
	return resolved
}

func resolve(in Info, bi *debug.BuildInfo) Info {
	if bi == nil {
		return in
	}
	if in.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		in.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if in.Commit == "unknown" && s.Value != "" {
				in.Commit = s.Value
				if len(in.Commit) > 12 {
					in.Commit = in.Commit[:12]
				}
			}
		case "vcs.time":
			if in.Date == "unknown" && s.Value != "" {
				in.Date = s.Value
			}
		}
	}
	return in
}
