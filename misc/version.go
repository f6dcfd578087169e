// Package misc keeps small helpers needed across the program.
package misc

import (
	"runtime/debug"
)

const appName = "mayadep"

// set by the build system via -ldflags, build info is the fallback
var (
	version = ""
	gitHash = ""
)

// GetAppName returns program name to be used in logs, reports and temporary file names.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	if len(version) != 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) != 0 {
		return bi.Main.Version
	}
	return "unknown"
}

// GetGitHash returns hash of the git commit program was built from.
func GetGitHash() string {
	if len(gitHash) != 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
