package domain

import "go.trai.ch/zerr"

var (
	// ErrVersionConflict is returned when the accumulated requirements on a
	// package name cannot be satisfied by any single candidate version.
	ErrVersionConflict = zerr.New("version conflict")

	// ErrDependencyCycle is returned when a package is required, directly or
	// transitively, by its own dependency subtree.
	ErrDependencyCycle = zerr.New("dependency cycle")

	// ErrPackageNotFound is returned when no candidate specification exists
	// for a required package name.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrDuplicatePackage is returned when a resolution graph already holds a
	// node for the same package name.
	ErrDuplicatePackage = zerr.New("package already resolved")

	// ErrSourceUnreachable is returned when a source download exhausted its
	// retry budget without a successful response.
	ErrSourceUnreachable = zerr.New("source unreachable")

	// ErrMalformedArtifact is returned when a download completed but the
	// payload is structurally unusable (empty or truncated). It is never
	// retried; a retry cannot fix a structurally wrong response.
	ErrMalformedArtifact = zerr.New("malformed artifact")

	// ErrChecksumMismatch is returned when a fetched artifact's digest does
	// not match the specification checksum. Always fatal for that package.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrBuildCommandFailed is returned when a build step exits non-zero.
	ErrBuildCommandFailed = zerr.New("build command failed")

	// ErrStorage is returned on package database I/O failures. Fatal for the
	// whole install operation, since install-state consistency is gone.
	ErrStorage = zerr.New("package database failure")

	// ErrInstallFailed is the terminal error for an install run in which one
	// or more packages did not reach the installed state.
	ErrInstallFailed = zerr.New("install failed")
)
