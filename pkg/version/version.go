// Package version records build metadata stamped at link time.
package version

import "fmt"

// Build metadata, overridden with -ldflags at release time.
var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the Git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("repoharvest %s (commit %s, built %s)", Version, Commit, Date)
}
