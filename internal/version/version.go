// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders all build metadata on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}

// UserAgent identifies this SDK to vecsearchd.
func UserAgent() string {
	return "vecsearch-go/" + Version
}
