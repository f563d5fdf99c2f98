// Package version holds the build information shown in the About dialog.
package version

// Set with -ldflags "-X scopeview/internal/version.Version=..."
var (
	// Version is the release of the viewer
	Version = "0.3.0"

	// BuildTime is the UTC time of the build
	BuildTime = "unknown"

	// GitCommit is the commit the binary was built from
	GitCommit = "unknown"
)
