// Package version carries build metadata, set with -ldflags "-X".
package version

import "runtime"

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String renders the metadata on one line, as printed by --version.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ", " + GoVersion + ")"
}
