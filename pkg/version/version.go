// Package version holds build metadata set through -ldflags.
package version

import (
	"runtime/debug"
)

// Build metadata. Overridden at link time, e.g.
// -ldflags "-X github.com/Sumatoshi-tech/squeaky/pkg/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)

// InitBinaryVersion fills unset metadata from the module build info, so
// binaries installed with go install still report something useful.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "<unknown>" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "<unknown>" {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata for display.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
