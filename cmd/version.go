package cmd

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version reports the build version string.
func Version() string {
	return version
}
