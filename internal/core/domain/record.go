package domain

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// InstalledRecord is the durable proof that a package reached the installed
// state. It is written exactly once per successful pipeline run and replaced
// atomically on reinstall, never mutated in place.
type InstalledRecord struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Checksum    string    `json:"checksum"`
	Files       []string  `json:"files"`
	InstalledAt time.Time `json:"installed_at"`

	License     string `json:"license,omitzero"`
	Repository  string `json:"repository,omitzero"`
	Description string `json:"description,omitzero"`
}

// SemVer parses the recorded version string.
func (rec *InstalledRecord) SemVer() (*semver.Version, error) {
	return semver.NewVersion(rec.Version)
}

// Matches reports whether the record covers the given specification, meaning
// the exact version and checksum are already installed.
func (rec *InstalledRecord) Matches(spec PackageSpec) bool {
	return rec.Name == spec.Name &&
		rec.Version == spec.Version.String() &&
		rec.Checksum == spec.Checksum
}

// NewInstalledRecord builds the record for a freshly installed specification.
func NewInstalledRecord(spec PackageSpec, files []string, at time.Time) InstalledRecord {
	return InstalledRecord{
		Name:        spec.Name,
		Version:     spec.Version.String(),
		Checksum:    spec.Checksum,
		Files:       files,
		InstalledAt: at,
		License:     spec.License,
		Repository:  spec.Repository,
		Description: spec.Description,
	}
}
