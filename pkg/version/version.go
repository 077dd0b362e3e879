// Package version provides build version information for KnowledgeScout.
package version

import "fmt"

// Version is the current KnowledgeScout version.
// Overridden at build time via -ldflags "-X .../pkg/version.Version=x.y.z".
var Version = "0.1.0"

// Commit is the git commit hash, set at build time.
var Commit = "unknown"

// String returns the full version string for display.
func String() string {
	return fmt.Sprintf("knowledgescout %s (%s)", Version, Commit)
}
