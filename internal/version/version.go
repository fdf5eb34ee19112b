// Package version holds the engine's build identity: a handful of
// ldflags-overridable variables plus short human-readable summaries, used
// by cmd/knowctl to populate urfave/cli's built-in --version flag.
package version

var (
	// Version is the current semantic version of the knowledge engine.
	Version = "0.1.0"

	// BuildDate is set during build time (use -ldflags).
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags).
	GitCommit = "unknown"
)

// Info returns the bare version string.
func Info() string {
	return Version
}

// FullInfo returns a detailed version line for diagnostics/status output.
func FullInfo() string {
	return "knowctl " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
