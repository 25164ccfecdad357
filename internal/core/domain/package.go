// Package domain contains the core value types and graph logic for package
// resolution and installation.
package domain

import (
	"github.com/Masterminds/semver/v3"
)

// Requirement is a dependency edge declared by a package: a target package
// name plus the semver range an acceptable version must satisfy.
type Requirement struct {
	// Name is the required package name.
	Name string

	// Range is the acceptable version range (e.g. ">=1.2, <2.0").
	Range *semver.Constraints
}

// Satisfies reports whether the given version is acceptable for this
// requirement.
func (r Requirement) Satisfies(v *semver.Version) bool {
	return r.Range.Check(v)
}

// PackageSpec is one concrete, already-parsed package definition. It is
// immutable once produced by the specfile loader; the engine never consumes
// raw text.
type PackageSpec struct {
	// Name is the package name, unique within one resolution.
	Name string

	// Version is the concrete version this specification describes.
	Version *semver.Version

	// Source is the URI of the source artifact (a gzipped tarball).
	Source string

	// Checksum is the hex-encoded SHA-512 digest of the source artifact.
	Checksum string

	// Requires lists the direct dependency requirements.
	Requires []Requirement

	// BuildSteps are the ordered shell commands run in the package working
	// directory during the building stage.
	BuildSteps []string

	// Provenance metadata, carried through to the installed record.
	License     string
	Repository  string
	Description string
}

// ID returns the canonical "name@version" identity of the specification.
func (s PackageSpec) ID() string {
	return s.Name + "@" + s.Version.String()
}
