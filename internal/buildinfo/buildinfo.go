// Package buildinfo contains build-time metadata injected at link time,
// separate from user configuration.
package buildinfo

var (
	// Version holds the Git version tag from build.
	Version = "dev"

	// BuildDate is the time when the binary was built.
	BuildDate = "unknown"
)

// String returns the version and build date in one display string.
func String() string {
	return Version + " (built " + BuildDate + ")"
}
