// Package build carries version information stamped at link time.
package build

// Version identifies the quarry release. Release builds override it via
// -ldflags "-X .../internal/build.Version=v1.2.3".
var Version = "dev"
