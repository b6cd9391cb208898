// Package version carries the build identification stamped in by the
// linker (-X flags); defaults identify development builds.
package version

var (
	// Version is the released engine version.
	Version = "dev"
	// GitSHA is the git commit SHA of the build.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the three fields for -version output.
func String() string {
	return Version + " (" + GitSHA + ", " + BuildTime + ")"
}
