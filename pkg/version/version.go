// Package version records the build identity stamped in via -ldflags at
// release time. A source build reports "dev".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the abbreviated git commit the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the one-line banner printed by the version command.
func String() string {
	return fmt.Sprintf("compass %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
