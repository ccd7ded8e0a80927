package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag of the build.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the release tag.
func Short() string {
	return Version
}

// Full describes the build of the named program, including the Go toolchain.
func Full(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", program, Version, Commit, BuildTime, runtime.Version())
}
