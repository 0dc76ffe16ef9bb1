// Package version exposes the bot's build version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridable via ldflags at build time; CommitHash and BuildTime fall back
// to the vcs settings embedded in the binary.
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// GetInfo returns the version, with a short commit hash when one is known.
func GetInfo() string {
	if CommitHash == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					CommitHash = setting.Value
				case "vcs.time":
					BuildTime = setting.Value
				}
			}
		}
	}

	res := Version
	if CommitHash != "" {
		hash := CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		res += fmt.Sprintf(" (%s)", hash)
	}
	return res
}
