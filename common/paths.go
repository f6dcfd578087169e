// Package common keeps path handling and enumerations shared between the
// parsers and the command line tool.
package common

import (
	"os"
	"strings"
)

// CleanPath normalizes a file path the way the rest of the pipeline expects
// it: user home expansion, forward slashes only, no duplicate slashes and no
// trailing slash. Server paths keep their leading double slash and web
// addresses are left with their scheme intact.
func CleanPath(path string) string {
	path = strings.TrimSpace(path)
	if len(path) == 0 {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}

	server := strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
	path = strings.ReplaceAll(path, `\`, "/")

	// Web addresses are the only place where a double slash is meaningful
	// past the very beginning of the path.
	if !strings.Contains(path, "https://") && !strings.Contains(path, "http://") {
		for strings.Contains(path, "//") {
			path = strings.ReplaceAll(path, "//", "/")
		}
	}

	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}

	if server && !strings.HasPrefix(path, "//") {
		path = "/" + path
	}
	return path
}
