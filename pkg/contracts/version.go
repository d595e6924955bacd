package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "0.1.0"

	// APIVersion is the version of the API (WebSocket messages)
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo returns a human-readable version string including the
// toolchain the binary was built with.
func VersionInfo() string {
	return fmt.Sprintf("causelist %s (commit %s, built %s, %s)",
		Version, GitCommit, BuildTime, runtime.Version())
}
