// Package version holds build identification, overridden at link time
// with -ldflags "-X ...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "0.1.0"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the full build identification line.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
