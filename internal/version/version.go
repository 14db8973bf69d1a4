// Package version exposes build metadata stamped at link time.
package version

// Overridden via -ldflags "-X ..." in release builds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the version with its commit, for startup logs.
func String() string {
	return Version + " (" + Commit + ")"
}
