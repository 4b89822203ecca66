// Package pathutil provides cross-platform path utilities for glance.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// LastComponent returns the final element of path, ignoring trailing
// separators. The root directory is returned as-is and an empty path yields
// an empty string.
//
// Examples:
//
//	/Users/brian/Projects/glance  → glance
//	/Users/brian/Projects/glance/ → glance
//	/                             → /
func LastComponent(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// ExpandHome replaces a leading "~" with the current user's home directory.
// Paths without the prefix, or when the home directory is unknown, are
// returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
