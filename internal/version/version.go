// Package version exposes the loom release version compiled into the binary.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the loom version string with surrounding whitespace trimmed.
func Get() string {
	return strings.TrimSpace(versionContent)
}
