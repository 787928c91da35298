package version

import "fmt"

// these values are set during build via -ldflags
//
//nolint:gochecknoglobals // by design
var (
	Version     = "dev"
	GitCommit   = "none"
	BuildDate   = "unknown"
	FullVersion = fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
)
