// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     version
// Description: Central version management for all components
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package version

// Version constants for all structlint components
const (
	// Tool version
	Tool = "1.0.0"

	// Component versions
	CLI      = "1.0.0"
	Server   = "1.0.0"
	Protocol = "1.0.0"
	Store    = "1.0.0"
)

// Commit is set at build time via -ldflags "-X .../version.Commit=<sha>"
var Commit = "dev"

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "cli":
		return CLI
	case "server":
		return Server
	case "protocol":
		return Protocol
	case "store":
		return Store
	default:
		return Tool
	}
}
