// Package buildinfo carries version metadata injected at link time.
package buildinfo

// Set via -ldflags "-X ..." by the release build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
