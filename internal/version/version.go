// Package version exposes build metadata for log lines and the transport
// User-Agent header.
package version

//nolint:revive // Overridden via ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
